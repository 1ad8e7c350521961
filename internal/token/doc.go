// Package token defines lexical token kinds and trivia for the Ruby subset
// understood by rbsec.
// Invariants:
//   - Token.Text is a slice of the original source (no copies).
//   - Token.Span matches Text exactly.
//   - String tokens keep their quotes; splitting into segments is the
//     parser's job.
//   - Comments and blanks are Trivia; newlines are real tokens because they
//     terminate statements.
package token
