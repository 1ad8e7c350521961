// Package fuzztests houses Go fuzz harnesses for the front half of rbsec:
// source -> lexer -> parser -> cops. They guard against panics, hangs and
// out-of-file spans on arbitrary Ruby-ish input.
//
// Не делает: генерацию корпусов, запись файлов, вызов CLI.
package fuzztests
