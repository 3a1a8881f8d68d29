package tool

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrInputClosed = errors.New("human input closed")

// HumanInput is the only blocking tool dependency. Ask has no timeout.
type HumanInput interface {
	Ask(ctx context.Context, query string) (string, error)
}

// ConsoleInput reads answers line by line. The CLI loop and human_response
// must share one instance so buffered input is not split between readers.
type ConsoleInput struct {
	reader *bufio.Reader
	out    io.Writer
}

func NewConsoleInput(in io.Reader, out io.Writer) *ConsoleInput {
	return &ConsoleInput{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

func (c *ConsoleInput) Ask(ctx context.Context, query string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := fmt.Fprint(c.out, query+": "); err != nil {
		return "", fmt.Errorf("write prompt: %w", err)
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			if line == "" {
				return "", ErrInputClosed
			}
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
