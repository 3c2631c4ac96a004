package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jancona/convfec/bits"
	"go.bug.st/serial"
)

// A serial read that times out ends the input.
const serialReadTimeout = 2 * time.Second

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// serialReader turns the (0, nil) result of a timed out read into io.EOF.
type serialReader struct {
	serial.Port
}

func (r serialReader) Read(p []byte) (int, error) {
	n, err := r.Port.Read(p)
	if n == 0 && err == nil {
		return 0, io.EOF
	}
	return n, err
}

func openSerial(port string, baud int) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: baud,
	}
	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
	}
	return p, nil
}

func openInput(path, serialPort string, baud int) (io.ReadCloser, error) {
	if serialPort != "" {
		p, err := openSerial(serialPort, baud)
		if err != nil {
			return nil, err
		}
		if err := p.SetReadTimeout(serialReadTimeout); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to set read timeout on %s: %w", serialPort, err)
		}
		return serialReader{p}, nil
	}
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input '%s': %w", path, err)
	}
	return f, nil
}

func openOutput(path, serialPort string, baud int) (io.WriteCloser, error) {
	if serialPort != "" {
		return openSerial(serialPort, baud)
	}
	if path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open output '%s': %w", path, err)
	}
	return f, nil
}

// readBits reads ASCII '0' and '1' characters, skipping whitespace.
func readBits(in io.Reader) (bits.Vector, error) {
	var v bits.Vector
	r := bufio.NewReader(in)
	pos := 0
	for {
		c, err := r.ReadByte()
		if err == io.EOF {
			return v, nil
		} else if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		switch c {
		case '0', '1':
			v.Append(c - '0')
		case ' ', '\t', '\r', '\n':
		default:
			return nil, fmt.Errorf("invalid character %q at offset %d", c, pos)
		}
		pos++
	}
}

// writeBits writes v as ASCII on a line of its own.
func writeBits(out io.Writer, v bits.Vector) error {
	w := bufio.NewWriter(out)
	w.WriteString(v.String())
	w.WriteByte('\n')
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
