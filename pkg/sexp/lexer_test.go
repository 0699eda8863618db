package sexp

import (
	"errors"
	"reflect"
	"testing"
)

func TestLex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Token
		wantErr  bool
	}{
		{
			name:  "Empty",
			input: "",
			expected: []Token{
				{Type: EOF, Lexeme: "", Line: 1, Col: 1},
			},
		},
		{
			name:  "Single List",
			input: "(add1 5)",
			expected: []Token{
				{Type: LPAREN, Lexeme: "(", Line: 1, Col: 1},
				{Type: SYMBOL, Lexeme: "add1", Line: 1, Col: 2},
				{Type: INTEGER, Lexeme: "5", Line: 1, Col: 7},
				{Type: RPAREN, Lexeme: ")", Line: 1, Col: 8},
				{Type: EOF, Lexeme: "", Line: 1, Col: 9},
			},
		},
		{
			name:  "Signs and Symbols",
			input: "-5 +7 - 12a",
			expected: []Token{
				{Type: INTEGER, Lexeme: "-5", Line: 1, Col: 1},
				{Type: INTEGER, Lexeme: "+7", Line: 1, Col: 4},
				{Type: SYMBOL, Lexeme: "-", Line: 1, Col: 7},
				{Type: SYMBOL, Lexeme: "12a", Line: 1, Col: 9},
				{Type: EOF, Lexeme: "", Line: 1, Col: 12},
			},
		},
		{
			name:  "Square Brackets",
			input: "[add1 1]",
			expected: []Token{
				{Type: LPAREN, Lexeme: "[", Line: 1, Col: 1},
				{Type: SYMBOL, Lexeme: "add1", Line: 1, Col: 2},
				{Type: INTEGER, Lexeme: "1", Line: 1, Col: 7},
				{Type: RPAREN, Lexeme: "]", Line: 1, Col: 8},
				{Type: EOF, Lexeme: "", Line: 1, Col: 9},
			},
		},
		{
			name:  "Lines and Comments",
			input: "(sub1\n  3) ; done\n",
			expected: []Token{
				{Type: LPAREN, Lexeme: "(", Line: 1, Col: 1},
				{Type: SYMBOL, Lexeme: "sub1", Line: 1, Col: 2},
				{Type: INTEGER, Lexeme: "3", Line: 2, Col: 3},
				{Type: RPAREN, Lexeme: ")", Line: 2, Col: 4},
				{Type: EOF, Lexeme: "", Line: 3, Col: 1},
			},
		},
		{
			name:    "Control Character",
			input:   "\x01",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lex(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Lex() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrUnexpectedChar) {
					t.Errorf("Lex() error = %v, want ErrUnexpectedChar", err)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Lex() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsInteger(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"0", true},
		{"37", true},
		{"-2147483648", true},
		{"+1", true},
		{"99999999999999999999999", true},
		{"", false},
		{"-", false},
		{"+", false},
		{"1-", false},
		{"add1", false},
		{"0x10", false},
	}
	for _, tc := range tests {
		if got := isInteger(tc.input); got != tc.want {
			t.Errorf("isInteger(%q) = %v; want %v", tc.input, got, tc.want)
		}
	}
}
