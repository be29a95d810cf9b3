package types

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	argSeparator     = "#"
	packetTerminator = "%"
)

// ErrMalformedPacket is returned for frames without a header.
var ErrMalformedPacket = errors.New("malformed packet")

var (
	escaper   = strings.NewReplacer("#", "<num>", "%", "<percent>", "$", "<dollar>", "&", "<and>")
	unescaper = strings.NewReplacer("<num>", "#", "<percent>", "%", "<dollar>", "$", "<and>", "&")
)

// Packet is one protocol message: a header tag plus ordered string arguments.
type Packet struct {
	Header string
	Args   []string
	// Raw packets carry arguments that are escaped already, f.e. evidence lists joined with "&".
	Raw bool
}

func NewPacket(header string, args ...string) *Packet {
	return &Packet{Header: header, Args: args}
}

func NewRawPacket(header string, args ...string) *Packet {
	return &Packet{Header: header, Args: args, Raw: true}
}

// Encode renders the packet as HEADER#arg1#arg2#% with every argument escaped.
func (p *Packet) Encode() string {
	var sb strings.Builder
	sb.WriteString(p.Header)
	sb.WriteString(argSeparator)
	for _, arg := range p.Args {
		if !p.Raw {
			arg = Escape(arg)
		}
		sb.WriteString(arg)
		sb.WriteString(argSeparator)
	}
	sb.WriteString(packetTerminator)
	return sb.String()
}

func (p *Packet) String() string {
	return p.Encode()
}

// Arg returns the i-th argument or "" if there are fewer arguments.
func (p *Packet) Arg(i int) string {
	if i < 0 || i >= len(p.Args) {
		return ""
	}
	return p.Args[i]
}

// DecodePacket parses a single frame (with or without the trailing "#%").
func DecodePacket(raw string) (*Packet, error) {
	raw = strings.TrimRight(raw, "\r\n")
	raw = strings.TrimSuffix(raw, packetTerminator)
	raw = strings.TrimSuffix(raw, argSeparator)
	if raw == "" {
		return nil, ErrMalformedPacket
	}
	parts := strings.Split(raw, argSeparator)
	header := parts[0]
	if header == "" {
		return nil, ErrMalformedPacket
	}
	args := make([]string, 0, len(parts)-1)
	for _, part := range parts[1:] {
		args = append(args, Unescape(part))
	}
	return &Packet{Header: header, Args: args}, nil
}

// SplitFrames splits a raw buffer holding several packets. Literal "%" never
// appears inside an argument, so it is a safe delimiter.
func SplitFrames(raw string) []string {
	frames := make([]string, 0, 1)
	for _, frame := range strings.Split(raw, packetTerminator) {
		frame = strings.TrimSpace(frame)
		if frame == "" {
			continue
		}
		frames = append(frames, frame+packetTerminator)
	}
	return frames
}

func Escape(s string) string {
	return escaper.Replace(s)
}

func Unescape(s string) string {
	return unescaper.Replace(s)
}
