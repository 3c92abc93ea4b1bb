package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Callback tokens are an internal contract: the core encodes them into
// render options and decodes them when they come back as button presses.
// The wire format is a short prefix plus an optional payload.

// TokenKind identifies what a decoded callback token asks for.
type TokenKind string

const (
	TokenPredef TokenKind = "predef" // payload: catalog glyph
	TokenTrack  TokenKind = "track"  // payload: habit id
	TokenDelete TokenKind = "delete" // payload: habit id
	TokenCustom TokenKind = "custom"
	TokenCancel TokenKind = "cancel"
	TokenYes    TokenKind = "yes"
	TokenNo     TokenKind = "no"
)

// Token is a decoded callback token.
type Token struct {
	Kind    TokenKind
	Glyph   string // set for TokenPredef
	HabitID int64  // set for TokenTrack and TokenDelete
}

// PredefToken encodes a predefined-habit pick.
func PredefToken(glyph string) string { return "predef_" + glyph }

// TrackToken encodes a track-habit pick.
func TrackToken(habitID int64) string { return fmt.Sprintf("track_%d", habitID) }

// DeleteToken encodes a delete-habit pick.
func DeleteToken(habitID int64) string { return fmt.Sprintf("delete_%d", habitID) }

const (
	customToken = "custom_habit"
	cancelToken = "cancel"
	yesToken    = "yes"
	noToken     = "no"
)

// CustomToken encodes the "type your own habit" choice.
func CustomToken() string { return customToken }

// CancelToken encodes flow cancellation.
func CancelToken() string { return cancelToken }

// YesToken and NoToken encode the note yes/no decision.
func YesToken() string { return yesToken }
func NoToken() string { return noToken }

// ParseToken decodes a raw callback token. Unknown or malformed tokens
// return false; callers treat that as unrecognized input.
func ParseToken(raw string) (Token, bool) {
	switch raw {
	case customToken:
		return Token{Kind: TokenCustom}, true
	case cancelToken:
		return Token{Kind: TokenCancel}, true
	case yesToken:
		return Token{Kind: TokenYes}, true
	case noToken:
		return Token{Kind: TokenNo}, true
	}

	if glyph, ok := strings.CutPrefix(raw, "predef_"); ok && glyph != "" {
		return Token{Kind: TokenPredef, Glyph: glyph}, true
	}
	if rest, ok := strings.CutPrefix(raw, "track_"); ok {
		if id, err := strconv.ParseInt(rest, 10, 64); err == nil && id > 0 {
			return Token{Kind: TokenTrack, HabitID: id}, true
		}
	}
	if rest, ok := strings.CutPrefix(raw, "delete_"); ok {
		if id, err := strconv.ParseInt(rest, 10, 64); err == nil && id > 0 {
			return Token{Kind: TokenDelete, HabitID: id}, true
		}
	}

	return Token{}, false
}
