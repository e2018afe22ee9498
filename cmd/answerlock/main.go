package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/saylorsolutions/answerlock/cmd/internal"
	"github.com/saylorsolutions/answerlock/pkg/answerlock"
	flag "github.com/spf13/pflag"
)

var version = "unreleased"

func main() {
	var (
		helpFlag    bool
		versionFlag bool
		secretFlag  string
		outFlag     string
		inFlag      string
		durFlag     time.Duration
		maxIterFlag uint64
	)
	flags := flag.NewFlagSet("answerlock", flag.ContinueOnError)
	flags.BoolVarP(&helpFlag, "help", "h", false, "Prints this usage information.")
	flags.BoolVar(&versionFlag, "version", false, "Prints the answerlock version.")
	flags.StringVarP(&secretFlag, "secret", "s", "", "Provides the secret on the command line instead of prompting for it. Mind your shell history.")
	flags.StringVarP(&outFlag, "out", "o", "", "Writes the envelope to FILE in binary form instead of printing the text fields.")
	flags.StringVarP(&inFlag, "in", "i", "", "Reads a binary envelope from FILE instead of taking the text fields as arguments.")
	flags.DurationVarP(&durFlag, "duration", "d", answerlock.DefaultTargetDuration, "How long to calibrate key derivation when encrypting. Longer means more work for anyone guessing the answer.")
	flags.Uint64VarP(&maxIterFlag, "max-iterations", "m", answerlock.DefaultMaxIterations, "The largest iteration count accepted from an envelope when decrypting.")
	flags.Usage = func() {
		fmt.Printf(`
answerlock encrypts a message under the answer to a question only the intended recipient can answer, like "what was the name of the blue stuffed horse".
Key derivation is calibrated against the clock at encryption time, so the envelope records how many hash iterations your machine managed in the target duration and the recipient replays exactly that many.

USAGE:  answerlock encrypt [flags] MESSAGE
        answerlock decrypt [flags] [ITERATIONS SALT PAYLOAD]

ARGS:
    MESSAGE is the text to encrypt.
    ITERATIONS, SALT, and PAYLOAD are the three envelope fields printed by encrypt. They can be omitted when reading a binary envelope with -i.

FLAGS:
%s
EXIT CODES:
    0 on success, 1 on any error, and 2 when a message decrypts but its integrity tag doesn't verify. Treat a code 2 message as tampered with.

SECURITY:
    The answer is the only thing protecting the message, and answers are low-entropy. The calibrated derivation buys time, not safety: don't use this for secrets that need to stay secret against serious hardware.
`, flags.FlagUsages())
	}
	if len(os.Args) == 1 {
		flags.Usage()
		return
	}
	if err := flags.Parse(os.Args[1:]); err != nil {
		flags.Usage()
		internal.Fatal("Error parsing flags: %v", err)
	}
	if helpFlag {
		flags.Usage()
		return
	}
	if versionFlag {
		internal.Echo("answerlock version %s", version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch flags.Arg(0) {
	case "encrypt":
		encrypt(ctx, flags, secretFlag, outFlag, durFlag)
	case "decrypt":
		decrypt(ctx, flags, secretFlag, inFlag, maxIterFlag)
	case "":
		flags.Usage()
		internal.Fatal("Missing required command, expected encrypt or decrypt")
	default:
		flags.Usage()
		internal.Fatal("Unknown command %q, expected encrypt or decrypt", flags.Arg(0))
	}
}

func encrypt(ctx context.Context, flags *flag.FlagSet, secret, out string, target time.Duration) {
	if flags.NArg() != 2 {
		internal.Fatal("encrypt expects exactly one MESSAGE argument")
	}
	message := flags.Arg(1)
	if secret == "" {
		var err error
		secret, err = internal.PromptSecretConfirm("Answer: ", "Confirm answer: ")
		if err != nil {
			internal.Fatal("Failed to read secret: %v", err)
		}
	}

	locker, err := answerlock.NewLocker(answerlock.SetTargetDuration(target))
	if err != nil {
		internal.Fatal("Invalid settings: %v", err)
	}
	internal.Echo("Calibrating key derivation for %s...", target)
	env, err := locker.Encrypt(ctx, message, secret)
	if err != nil {
		internal.Fatal("Failed to encrypt: %v", err)
	}

	if out != "" {
		data, err := env.MarshalBinary()
		if err != nil {
			internal.Fatal("Failed to encode envelope: %v", err)
		}
		if err := os.WriteFile(out, data, 0600); err != nil {
			internal.Fatal("Failed to write envelope to '%s': %v", out, err)
		}
		internal.Echo("Wrote envelope to '%s' after %d derivation iterations", out, env.Iterations)
		return
	}
	fmt.Println(strings.Join(env.Fields(), "\n"))
}

func decrypt(ctx context.Context, flags *flag.FlagSet, secret, in string, maxIterations uint64) {
	env := readEnvelope(flags, in)
	if secret == "" {
		var err error
		secret, err = internal.PromptSecret("Answer: ")
		if err != nil {
			internal.Fatal("Failed to read secret: %v", err)
		}
	}

	locker, err := answerlock.NewLocker(answerlock.SetMaxIterations(maxIterations))
	if err != nil {
		internal.Fatal("Invalid settings: %v", err)
	}
	internal.Echo("Replaying %d derivation iterations...", env.Iterations)
	result, err := locker.Decrypt(ctx, secret, env)
	switch {
	case errors.Is(err, answerlock.ErrWrongPassword):
		internal.Fatal("Wrong answer, the message did not decrypt")
	case errors.Is(err, answerlock.ErrIterationCount):
		internal.Fatal("Envelope iteration count is over the limit, raise --max-iterations if you trust the sender: %v", err)
	case err != nil:
		internal.Fatal("Failed to decrypt: %v", err)
	}

	fmt.Println(result.Message)
	if !result.TagValid {
		internal.Echo("WARNING: the integrity tag did not verify. The envelope was altered, or the answer only happened to decode.")
		os.Exit(2)
	}
}

func readEnvelope(flags *flag.FlagSet, in string) *answerlock.Envelope {
	if in != "" {
		if flags.NArg() != 1 {
			internal.Fatal("decrypt with -i takes no envelope arguments")
		}
		data, err := os.ReadFile(in)
		if err != nil {
			internal.Fatal("Failed to read envelope from '%s': %v", in, err)
		}
		env := new(answerlock.Envelope)
		if err := env.UnmarshalBinary(data); err != nil {
			internal.Fatal("Failed to decode envelope: %v", err)
		}
		return env
	}
	if flags.NArg() != 4 {
		internal.Fatal("decrypt expects the three envelope fields: ITERATIONS SALT PAYLOAD")
	}
	env, err := answerlock.ParseFields(flags.Args()[1:4])
	if err != nil {
		internal.Fatal("Bad envelope: %v", err)
	}
	return env
}
