package iocli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdio реализует IO поверх потоков процесса
type Stdio struct {
	file   *os.File // ввод, если это терминал
	reader *bufio.Reader
	out    io.Writer
}

// NewStdio returns IO bound to os.Stdin and os.Stdout
func NewStdio() IO {
	return newStdio(os.Stdin, os.Stdout)
}

// NewStreams returns IO over arbitrary streams (scripts, tests)
func NewStreams(in io.Reader, out io.Writer) IO {
	return newStdio(in, out)
}

func newStdio(in io.Reader, out io.Writer) *Stdio {
	s := &Stdio{reader: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok {
		s.file = f
	}
	return s
}

func (s *Stdio) Println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s *Stdio) ReadInput(prompt string) (string, error) {
	s.Printf("%s", prompt)
	return s.readLine()
}

// ReadPassword отключает эхо, если ввод - терминал; иначе читает строку как есть
func (s *Stdio) ReadPassword(prompt string) (string, error) {
	s.Printf("%s", prompt)

	if s.file != nil && term.IsTerminal(int(s.file.Fd())) {
		pwBytes, err := term.ReadPassword(int(s.file.Fd()))
		s.Println("")
		if err != nil {
			return "", err
		}
		return string(pwBytes), nil
	}

	return s.readLine()
}

func (s *Stdio) readLine() (string, error) {
	input, err := s.reader.ReadString('\n')
	if err != nil && !(err == io.EOF && input != "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
