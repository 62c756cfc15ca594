package snapshot

import (
	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
)

var (
	_ easyjson.Marshaler   = Snapshot{}
	_ easyjson.Unmarshaler = (*Snapshot)(nil)
)

// MarshalEasyJSON writes {"algorithm","state","description"} with the state
// base64 encoded.
func (s Snapshot) MarshalEasyJSON(out *jwriter.Writer) {
	out.RawByte('{')
	out.RawString(`"algorithm":`)
	out.String(s.Algorithm)
	out.RawString(`,"state":`)
	out.Base64Bytes(s.State)
	if s.Description != "" {
		out.RawString(`,"description":`)
		out.String(s.Description)
	}
	out.RawByte('}')
}

func (s *Snapshot) UnmarshalEasyJSON(in *jlexer.Lexer) {
	isTopLevel := in.IsStart()
	if in.IsNull() {
		if isTopLevel {
			in.Consumed()
		}
		in.Skip()
		return
	}
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}
		switch key {
		case "algorithm":
			s.Algorithm = in.String()
		case "state":
			s.State = in.Bytes()
		case "description":
			s.Description = in.String()
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	if isTopLevel {
		in.Consumed()
	}
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	w := jwriter.Writer{}
	s.MarshalEasyJSON(&w)
	return w.Buffer.BuildBytes(), w.Error
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	r := jlexer.Lexer{Data: data}
	s.UnmarshalEasyJSON(&r)
	return r.Error()
}
