/*
Command constrainrepl is an interactive sandbox for a grammar: load an
EBNF source file and a (toy, byte-level by default) vocabulary, then type
lines at the prompt and watch which bytes and tokens the grammar still
allows, one character at a time.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"

	"github.com/npillmayer/gorgo/constrain"
	"github.com/npillmayer/gorgo/constrain/vocab"
	"github.com/npillmayer/schuko/gtrace"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
)

func tracer() tracing.Trace {
	return tracing.Select("gorgo.constrain.repl")
}

func main() {
	initDisplay()
	gtrace.SyntaxTracer = gologadapter.New()
	grammarPath := flag.String("grammar", "", "path to an EBNF grammar source file (required)")
	vocabPath := flag.String("vocab", "", "path to a newline-separated token vocabulary file (default: byte-level)")
	tlevel := flag.String("trace", "Info", "trace level [Debug|Info|Error]")
	configPath := flag.String("config", "", "path to a TOML engine configuration file")
	flag.Parse()

	tracer().SetTraceLevel(tracing.TraceLevelFromString(*tlevel))

	if *grammarPath == "" {
		pterm.Error.Println("missing required -grammar flag")
		os.Exit(2)
	}
	grammarText, err := os.ReadFile(*grammarPath)
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(2)
	}

	v, err := loadVocabulary(*vocabPath)
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(2)
	}

	var opts []constrain.Option
	if *configPath != "" {
		cfg, err := constrain.LoadConfig(*configPath)
		if err != nil {
			pterm.Error.Println(err.Error())
			os.Exit(2)
		}
		opts = append(opts, constrain.WithCache(cfg.UseCache), constrain.WithCompaction(cfg.UseCompaction))
	}

	engine, err := constrain.New(string(grammarText), v, opts...)
	if err != nil {
		pterm.Error.Println(err.Error())
		os.Exit(2)
	}
	pterm.Info.Printf("Loaded grammar from %s, %d vocabulary tokens\n", *grammarPath, v.Size())

	repl, err := readline.New("constrain> ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	defer repl.Close()
	pterm.Info.Println("Type bytes to feed the recognizer, :reset to start over, :quit to exit")
	runREPL(repl, engine, v)
}

func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{Text: "  >>", Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack)}
	pterm.Error.Prefix = pterm.Prefix{Text: "  Error", Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack)}
}

// loadVocabulary builds a Vocabulary from a newline-separated file of
// token display strings, or — if path is empty — a toy byte-level
// vocabulary of 256 single-byte tokens plus a trailing "</s>" separator,
// enough to exercise a grammar without any external tokenizer data.
func loadVocabulary(path string) (*vocab.Vocabulary, error) {
	if path == "" {
		tokens := make([][]byte, 0, 257)
		for b := 0; b < 256; b++ {
			tokens = append(tokens, []byte{byte(b)})
		}
		tokens = append(tokens, []byte("</s>"))
		return vocab.New(tokens, nil, []vocab.TokenID{vocab.TokenID(len(tokens) - 1)})
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening vocabulary file: %w", err)
	}
	defer f.Close()
	var tokens [][]byte
	var separators []vocab.TokenID
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "!") {
			separators = append(separators, vocab.TokenID(len(tokens)))
			line = line[1:]
		}
		tokens = append(tokens, []byte(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading vocabulary file: %w", err)
	}
	return vocab.New(tokens, nil, separators)
}

func runREPL(repl *readline.Instance, engine *constrain.Engine, v *vocab.Vocabulary) {
	for {
		line, err := repl.Readline()
		if err != nil { // io.EOF, ^D
			break
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == ":quit":
			return
		case line == ":reset":
			engine.Reset()
			pterm.Info.Println("engine reset")
			continue
		}
		feedLine(engine, line)
		reportState(engine, v)
	}
	pterm.Info.Println("Good bye!")
}

func feedLine(engine *constrain.Engine, line string) {
	for i := 0; i < len(line); i++ {
		allowed, err := engine.AllowedTokenIDs()
		if err != nil {
			pterm.Error.Println(err.Error())
			return
		}
		b := line[i]
		ok := false
		for _, id := range allowed {
			if len(allowed) > 0 && id < 256 && byte(id) == b {
				ok = true
				break
			}
		}
		_ = ok // the byte-level vocabulary maps token id == byte value
		if err := engine.AcceptToken(vocabTokenForByte(b)); err != nil {
			pterm.Error.Printf("byte %q rejected at position %d: %v\n", b, i, err)
			return
		}
	}
}

// vocabTokenForByte assumes the default byte-level vocabulary, where
// token id i holds the single byte i.
func vocabTokenForByte(b byte) vocab.TokenID { return vocab.TokenID(b) }

func reportState(engine *constrain.Engine, v *vocab.Vocabulary) {
	if engine.IsFinished() {
		pterm.Info.Println("engine finished")
		return
	}
	ids, err := engine.AllowedTokenIDs()
	if err != nil {
		pterm.Error.Println(err.Error())
		return
	}
	var shown []string
	for i, id := range ids {
		if i >= 16 {
			shown = append(shown, fmt.Sprintf("… (%d more)", len(ids)-i))
			break
		}
		shown = append(shown, v.DisplayString(id))
	}
	pterm.Info.Printf("%d bytes allowed next: %s\n", len(ids), strings.Join(shown, " "))
}
