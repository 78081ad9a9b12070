// Package extradata inspects codec-specific decoder descriptions
// (the out-of-band "extradata" of a stream) and Annex-B bitstreams.
package extradata

import (
	"bytes"
	"fmt"
)

// Description is the opaque codec-specific blob a decoder is configured with.
type Description []byte

func (d Description) Equal(cmp Description) bool {
	return bytes.Equal(d, cmp)
}

func (d Description) String() string {
	if len(d) == 0 {
		return "<empty>"
	}
	parsed, err := d.Parse()
	if err != nil {
		return fmt.Sprintf("<unknown: %d bytes>", len(d))
	}
	return parsed.String()
}

// Parsed is one of *AVCC, *AV1C or *AnnexB.
type Parsed interface {
	fmt.Stringer
}

// Parse tries the known description formats in turn.
func (d Description) Parse() (Parsed, error) {
	if len(d) == 0 {
		return nil, fmt.Errorf("empty description")
	}
	if avcc, err := ParseAVCC(d); err == nil {
		return avcc, nil
	}
	if av1c, err := ParseAV1C(d); err == nil {
		return av1c, nil
	}
	if seq, err := ParseAnnexB(d); err == nil {
		return seq, nil
	}
	return nil, fmt.Errorf("unrecognized description format (%d bytes)", len(d))
}

// ErrInvalidDescription is returned by Validate.
type ErrInvalidDescription struct {
	Family string
	Err    error
}

func (e ErrInvalidDescription) Error() string {
	return fmt.Sprintf("invalid %s description: %v", e.Family, e.Err)
}

func (e ErrInvalidDescription) Unwrap() error {
	return e.Err
}

// Validate checks the description against the codec family
// ("avc", "av1", ...). An empty description is always fine, and families
// without a known record format accept anything.
func Validate(family string, d Description) error {
	if len(d) == 0 {
		return nil
	}
	var err error
	switch family {
	case "avc":
		// in-band parameter sets in Annex-B form are accepted too
		if _, err = ParseAVCC(d); err != nil {
			if _, errAnnexB := ParseAnnexB(d); errAnnexB == nil {
				err = nil
			}
		}
	case "av1":
		_, err = ParseAV1C(d)
	}
	if err != nil {
		return ErrInvalidDescription{Family: family, Err: err}
	}
	return nil
}
