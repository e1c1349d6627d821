package validation

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestValidateClientContentType(t *testing.T) {
	for _, ct := range []string{"text/csv", "TEXT/CSV; charset=utf-8", "application/x-ndjson", "application/octet-stream"} {
		if err := ValidateClientContentType(ct); err != nil {
			t.Errorf("ValidateClientContentType(%q) = %v", ct, err)
		}
	}
	for _, ct := range []string{"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "image/png", ""} {
		if err := ValidateClientContentType(ct); !errors.Is(err, ErrDisallowedFileType) {
			t.Errorf("ValidateClientContentType(%q) = %v, want ErrDisallowedFileType", ct, err)
		}
	}
}

func TestValidateFileContentByMagicBytes(t *testing.T) {
	csv := bytes.NewReader([]byte("reference_code,price\nA,1\n"))
	if _, err := ValidateFileContentByMagicBytes(csv); err != nil {
		t.Fatalf("csv rejected: %v", err)
	}
	rest, _ := io.ReadAll(csv)
	if string(rest) != "reference_code,price\nA,1\n" {
		t.Errorf("reader not rewound, read %q", rest)
	}

	png := bytes.NewReader([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"))
	if _, err := ValidateFileContentByMagicBytes(png); !errors.Is(err, ErrDisallowedFileType) {
		t.Errorf("png error = %v, want ErrDisallowedFileType", err)
	}

	if _, err := ValidateFileContentByMagicBytes(nil); err == nil {
		t.Error("nil reader accepted")
	}
}

func TestSanitizeForFormulaInjection(t *testing.T) {
	tests := map[string]string{
		"=SUM(A1)":  "'=SUM(A1)",
		" +1":       "' +1",
		"-5":        "'-5",
		"@cmd":      "'@cmd",
		"Submarine": "Submarine",
		"":          "",
		"   ":       "   ",
	}
	for in, want := range tests {
		if got := SanitizeForFormulaInjection(in); got != want {
			t.Errorf("SanitizeForFormulaInjection(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStripUnprintable(t *testing.T) {
	if got := StripUnprintable("\ufeffprice\x00\t"); got != "price\t" {
		t.Errorf("StripUnprintable = %q", got)
	}
}
