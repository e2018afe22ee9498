/*
Package answerlock encrypts a message under a key derived from the answer to a shared question, so only someone who knows the answer can read and verify it.
This uses AES-256 in CTR mode with an HMAC-SHA256 integrity tag.

# How it works:

The sender's Deriver stretches the answer together with a fresh 16-byte salt, repeating the stretch hash until a wall-clock budget (15 seconds by default) has elapsed.
The iteration count reached and the salt are recorded in the Envelope next to the tag and ciphertext, so the recipient can replay the exact same derivation with their own answer.
Calibrating against the clock instead of a fixed work factor ties the cost of guessing answers to the speed of the sender's machine at encryption time.

Decrypt replays the derivation, runs the same CTR transform, and checks that the output is valid text.
Output that doesn't decode as text means the wrong answer was supplied, reported as ErrWrongPassword.
Output that does decode is returned along with the verdict of the integrity tag comparison, whichever way it went.

# General guidelines:
  - An Envelope received from elsewhere is untrusted input. The Deriver clamps its iteration count before replaying it; lower the bound with SetMaxIterations if your hosts are slower than your senders.
  - A decoded message with TagValid set to false means the ciphertext or the tag was altered in transit, or the answer collided into valid text. Policy is the caller's call, but treating it as authentic would be a mistake.
  - Calibration is CPU-bound for the full target duration. Pass a cancellable context when encrypting from a request path.
  - Answers are compared by derivation, so they are case- and whitespace-sensitive. Agree on a normalization with the recipient before encrypting.
*/
package answerlock
