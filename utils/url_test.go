package utils

import (
	"strings"
	"testing"
)

func TestEncodeURLWithSpaces(t *testing.T) {
	result, err := EncodeURLWithSpaces("https://culture.seoul.go.kr/cmmn/file/getImage.do?atchFileId=포스터 최종.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(result, " ") {
		t.Errorf("expected no raw spaces, got %q", result)
	}
	if !strings.Contains(result, "%20") {
		t.Errorf("expected encoded spaces in query, got %q", result)
	}
}

func TestEncodeURLWithSpacesPath(t *testing.T) {
	result, err := EncodeURLWithSpaces("http://example.com/path with spaces/poster image.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result, "path%20with%20spaces") {
		t.Errorf("expected encoded spaces in path, got %q", result)
	}
}
