package character

import (
	"errors"
	"fmt"
	"strconv"
)

var errMalformedPNum = errors.New("malformed pnum")

// pnumParts holds the chapter and poem segments of a poem identifier.
// A pnum is laid out as CCxxPP...: two chapter digits, a two character
// chapter code and the poem number. The four character form CCPP has no
// chapter code.
type pnumParts struct {
	ChapterNum string
	PoemNum    string
}

func parsePNum(pnum string) (pnumParts, error) {
	r := []rune(pnum)

	var parts pnumParts
	switch {
	case len(r) >= 5:
		parts = pnumParts{ChapterNum: string(r[:2]), PoemNum: string(r[4:])}
	case len(r) == 4:
		parts = pnumParts{ChapterNum: string(r[:2]), PoemNum: string(r[2:])}
	default:
		parts = pnumParts{ChapterNum: string(r[:min(2, len(r))])}
	}

	if parts.ChapterNum != "" && !isDigits(parts.ChapterNum) {
		return pnumParts{}, fmt.Errorf("%w: chapter segment %q", errMalformedPNum, parts.ChapterNum)
	}
	if parts.PoemNum != "" && !isDigits(parts.PoemNum) {
		return pnumParts{}, fmt.Errorf("%w: poem segment %q", errMalformedPNum, parts.PoemNum)
	}
	// range check, Atoi rejects values that overflow int
	if _, err := atoiOrZero(parts.ChapterNum); err != nil {
		return pnumParts{}, fmt.Errorf("%w: %v", errMalformedPNum, err)
	}
	if _, err := atoiOrZero(parts.PoemNum); err != nil {
		return pnumParts{}, fmt.Errorf("%w: %v", errMalformedPNum, err)
	}
	return parts, nil
}

// URL returns /poems/{chapter}/{poem} with leading zeros stripped, or nil
// when either segment is missing.
func (p pnumParts) URL() *string {
	if p.ChapterNum == "" || p.PoemNum == "" {
		return nil
	}
	ch, _ := strconv.Atoi(p.ChapterNum)
	pn, _ := strconv.Atoi(p.PoemNum)
	u := fmt.Sprintf("/poems/%d/%d", ch, pn)
	return &u
}

// Ints returns the numeric sort key; empty segments count as zero.
func (p pnumParts) Ints() (int, int) {
	ch, _ := atoiOrZero(p.ChapterNum)
	pn, _ := atoiOrZero(p.PoemNum)
	return ch, pn
}

func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
