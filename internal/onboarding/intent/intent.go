// Package intent recognizes the global commands of the conversation.
//
// Matching is whole-token membership over the lowercased message, never
// substring containment, so "I scanned it" does not trip the "can" in
// "cancel". Detection order is the dispatch priority:
// cancel > open-account > balance > greeting.
package intent

import "strings"

type Intent int

const (
	None Intent = iota
	Cancel
	OpenAccount
	Balance
	Greeting
)

var cancelTokens = tokenSet("stop", "cancel", "later", "abort", "exit", "quit", "afterwards")

var greetingTokens = tokenSet("hi", "hello", "hey", "start", "ok", "okay", "thanks", "thank")

func tokenSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Detect returns the highest-priority intent matched by the message.
func Detect(message string) Intent {
	tokens := Tokenize(message)
	switch {
	case containsAny(tokens, cancelTokens):
		return Cancel
	case containsAll(tokens, "open", "account"):
		return OpenAccount
	case containsAll(tokens, "balance"):
		return Balance
	case containsAny(tokens, greetingTokens):
		return Greeting
	}
	return None
}

// Tokenize lowercases the message and splits it into bare words, trimming
// the punctuation that chat input tends to carry.
func Tokenize(message string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(message))
	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:'\"")
		if f != "" {
			tokens[f] = struct{}{}
		}
	}
	return tokens
}

func containsAny(tokens map[string]struct{}, set map[string]struct{}) bool {
	for t := range tokens {
		if _, ok := set[t]; ok {
			return true
		}
	}
	return false
}

func containsAll(tokens map[string]struct{}, words ...string) bool {
	for _, w := range words {
		if _, ok := tokens[w]; !ok {
			return false
		}
	}
	return true
}
