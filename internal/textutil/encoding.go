package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// mojibakeReplacer maps two-rune sequences produced by decoding UTF-8 bytes as
// Latin-1/Windows-1252 back to the intended character.
var mojibakeReplacer = strings.NewReplacer(
	"Ã£", "ã",
	"Ãµ", "õ",
	"Ã¡", "á",
	"Ã¢", "â",
	"Ã©", "é",
	"Ãª", "ê",
	"Ã\u00ad", "í",
	"Ã³", "ó",
	"Ã´", "ô",
	"Ãº", "ú",
	"Ã§", "ç",
	"Ã\u0081", "Á",
	"Ã‰", "É",
	"Ã\u008d", "Í",
	"Ã“", "Ó",
	"Ãš", "Ú",
	"Ã€", "À",
	"Ãƒ", "Ã",
)

// RepairEncoding fixes known mis-decoded sequences and returns the text in
// Unicode NFC form. Text without corruption is returned unchanged apart from
// normalization, so the function is idempotent.
func RepairEncoding(text string) string {
	if text == "" {
		return ""
	}
	if strings.ContainsRune(text, 'Ã') {
		text = mojibakeReplacer.Replace(text)
	}
	return norm.NFC.String(text)
}

// AppendSpaced appends next to base separated by exactly one space. Empty
// fragments are ignored.
func AppendSpaced(base, next string) string {
	next = strings.TrimSpace(next)
	if next == "" {
		return base
	}
	trimmed := strings.TrimRight(base, " \t")
	if trimmed == "" {
		return next
	}
	return trimmed + " " + next
}
