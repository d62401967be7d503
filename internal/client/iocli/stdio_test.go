package iocli

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Проверяем что NewStdio возвращает валидный объект
func TestNewStdio(t *testing.T) {
	stdio := NewStdio()
	assert.NotNil(t, stdio)
}

func TestPrintlnAndPrintf(t *testing.T) {
	var out bytes.Buffer
	stdio := NewStreams(strings.NewReader(""), &out)

	stdio.Println("hello", "world")
	stdio.Printf("test %d %s", 1, "abc")
	_, err := stdio.Write([]byte("!"))
	require.NoError(t, err)

	assert.Equal(t, "hello world\ntest 1 abc!", out.String())
}

// Несколько ReadInput подряд не теряют буферизованный ввод
func TestReadInput_Sequential(t *testing.T) {
	var out bytes.Buffer
	stdio := NewStreams(strings.NewReader("mom@example.com\n  Mom  \nlast"), &out)

	email, err := stdio.ReadInput("Email: ")
	require.NoError(t, err)
	assert.Equal(t, "mom@example.com", email)

	name, err := stdio.ReadInput("Name: ")
	require.NoError(t, err)
	assert.Equal(t, "Mom", name)

	// последняя строка без перевода строки
	last, err := stdio.ReadInput("> ")
	require.NoError(t, err)
	assert.Equal(t, "last", last)

	_, err = stdio.ReadInput("> ")
	assert.ErrorIs(t, err, io.EOF)

	assert.Equal(t, "Email: Name: > > ", out.String())
}

// Не терминал: пароль читается как обычная строка
func TestReadPassword_NonTerminal(t *testing.T) {
	var out bytes.Buffer
	stdio := NewStreams(strings.NewReader("secret1\n"), &out)

	pw, err := stdio.ReadPassword("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "secret1", pw)
	assert.Equal(t, "Password: ", out.String())
}

// Тест ReadInput через pipe вместо os.Stdin
func TestReadInput_Pipe(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)

	go func() {
		_, _ = w.Write([]byte("user input\n"))
		_ = w.Close()
	}()

	var out bytes.Buffer
	stdio := NewStreams(r, &out)

	result, err := stdio.ReadPassword("Prompt: ")
	require.NoError(t, err)
	assert.Equal(t, "user input", result)
}
