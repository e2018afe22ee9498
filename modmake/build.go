package main

import (
	. "github.com/saylorsolutions/modmake"
)

const (
	answerlockVersion = "0.1.0"
)

func main() {
	b := NewBuild()
	b.Generate().DependsOnRunner("tidy", "", Go().ModTidy())

	answerlock := NewAppBuild("answerlock", "cmd/answerlock", answerlockVersion)
	answerlock.Build(func(gb *GoBuild) {
		gb.
			StripDebugSymbols().
			SetVariable("main", "version", answerlockVersion).
			CgoEnabled(false)
	})
	answerlock.Variant("windows", "amd64")
	answerlock.Variant("linux", "amd64")
	answerlock.Variant("linux", "arm64")
	answerlock.Variant("darwin", "amd64")
	answerlock.Variant("darwin", "arm64")
	b.ImportApp(answerlock)

	b.Execute()
}
