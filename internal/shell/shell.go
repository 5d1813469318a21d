// Package shell is the interactive word-cloud prompt. Input is read as
// whitespace-separated tokens, so answers may share a line ("g 10").
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/document"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/frequency"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/internal/manager"
	"github.com/Adithya-Monish-Kumar-K/word-cloud/pkg/config"
)

// Loader builds a Manager for a text and optional filter path.
type Loader func(ctx context.Context, textPath, filterPath string) (*manager.Manager, error)

var (
	titleColor   = color.New(color.FgCyan, color.Bold).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
	warnColor    = color.New(color.FgYellow).SprintFunc()
)

// errEOF ends the session when stdin runs out.
var errEOF = errors.New("end of input")

type Shell struct {
	in     *bufio.Scanner
	out    io.Writer
	cfg    config.CloudConfig
	load   Loader
	exists func(path string) bool
	logger *slog.Logger
}

func New(in io.Reader, out io.Writer, cfg config.CloudConfig, load Loader) *Shell {
	sc := bufio.NewScanner(in)
	sc.Split(bufio.ScanWords)
	return &Shell{
		in:     sc,
		out:    out,
		cfg:    cfg,
		load:   load,
		exists: document.Exists,
		logger: slog.Default().With("component", "shell"),
	}
}

// Run drives the session until the user quits or input ends. Both are a
// normal exit and return nil.
func (s *Shell) Run(ctx context.Context) error {
	m, err := s.open(ctx)
	if err != nil {
		if errors.Is(err, errEOF) {
			return nil
		}
		return err
	}
	for {
		s.menu()
		cmd, err := s.next()
		if err != nil {
			return nil
		}
		switch strings.ToLower(cmd) {
		case "q":
			s.println("Thank you, have a nice day!\n")
			return nil
		case "f":
			s.println("Enter in a word:\n")
			word, err := s.next()
			if err != nil {
				return nil
			}
			s.println(m.FrequencyOfWord(ctx, word) + "\n")
		case "g":
			s.println("Enter number of words\n")
			k, err := s.nextInt()
			if err != nil {
				return nil
			}
			s.println(m.TopWordsReport(ctx, k) + "\n")
		case "s":
			s.println("Enter number of words for word cloud\n")
			k, err := s.nextInt()
			if err != nil {
				return nil
			}
			s.writeCloud(ctx, m, k)
		}
	}
}

// open resolves the document and filter, from config when preset or by
// prompting, and loads them.
func (s *Shell) open(ctx context.Context) (*manager.Manager, error) {
	for {
		textPath, filterPath, err := s.paths()
		if err != nil {
			return nil, err
		}
		m, err := s.load(ctx, textPath, filterPath)
		if err == nil {
			return m, nil
		}
		s.logger.Error("loading document failed", "text", textPath, "filter", filterPath, "error", err)
		s.println(errorColor(fmt.Sprintf("Could not load document: %v", err)) + "\n")
		if s.cfg.TextPath != "" {
			return nil, err
		}
	}
}

func (s *Shell) paths() (string, string, error) {
	if s.cfg.TextPath != "" {
		return s.cfg.TextPath, s.cfg.FilterPath, nil
	}

	s.println("What is the input file? ")
	textPath, err := s.promptFile("This is not a valid file. Try again")
	if err != nil {
		return "", "", err
	}

	s.println("Is there a filter file (Y/N)? ")
	answer, err := s.next()
	if err != nil {
		return "", "", err
	}
	if strings.ToLower(answer) != "y" {
		return textPath, "", nil
	}
	s.println("What is the filter file? ")
	filterPath, err := s.promptFile("This is not a valid filter file. Try again")
	if err != nil {
		return "", "", err
	}
	return textPath, filterPath, nil
}

// promptFile reads names relative to the input directory until one exists.
func (s *Shell) promptFile(invalid string) (string, error) {
	for {
		name, err := s.next()
		if err != nil {
			return "", err
		}
		path := filepath.Join(s.cfg.InputDir, name)
		if s.exists(path) {
			return path, nil
		}
		s.println(errorColor(invalid) + "\n")
	}
}

func (s *Shell) writeCloud(ctx context.Context, m *manager.Manager, k int) {
	err := m.WriteWordCloud(ctx, k, s.cfg.OutputPath)
	switch {
	case err == nil:
		s.println(successColor("Word Cloud Generated") + "\n")
	case errors.Is(err, frequency.ErrInvalidCount):
		s.println(warnColor("Number of words must be greater than 0"))
	default:
		s.println(errorColor(fmt.Sprintf("Could not write word cloud: %v", err)) + "\n")
	}
}

func (s *Shell) menu() {
	s.println(titleColor("Word Cloud!"))
	s.println("Select an option")
	s.println("(F)requency of a word")
	s.println("(G)enerate report of most frequent words")
	s.println("(S)how word cloud")
	s.println("(Q)uit\n")
}

func (s *Shell) next() (string, error) {
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			s.logger.Error("reading input failed", "error", err)
		}
		return "", errEOF
	}
	return s.in.Text(), nil
}

// nextInt reads tokens until one parses as an integer.
func (s *Shell) nextInt() (int, error) {
	for {
		tok, err := s.next()
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(tok)
		if err == nil {
			return n, nil
		}
		s.println(warnColor("Please enter a whole number"))
	}
}

func (s *Shell) println(line string) {
	fmt.Fprintln(s.out, line)
}
