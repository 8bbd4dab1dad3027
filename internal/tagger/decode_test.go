package tagger

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func pngPayload(t *testing.T) ([]byte, string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes(), base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestDecodeBase64Image(t *testing.T) {
	raw, encoded := pngPayload(t)

	gotRaw, img, err := DecodeBase64Image(encoded)
	if err != nil {
		t.Fatalf("DecodeBase64Image: %v", err)
	}
	if !bytes.Equal(gotRaw, raw) {
		t.Fatal("raw bytes must match the decoded payload")
	}
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 2 {
		t.Fatalf("unexpected bounds: %v", img.Bounds())
	}
}

func TestDecodeBase64ImageDataURI(t *testing.T) {
	_, encoded := pngPayload(t)
	_, img, err := DecodeBase64Image("data:image/png;base64," + encoded)
	if err != nil {
		t.Fatalf("DecodeBase64Image with data URI: %v", err)
	}
	if img == nil {
		t.Fatal("expected decoded image")
	}
}

func TestDecodeBase64ImageBadBase64(t *testing.T) {
	_, _, err := DecodeBase64Image("not base64!!")
	if !errors.Is(err, ErrImageDecode) {
		t.Fatalf("expected ErrImageDecode, got %v", err)
	}
}

func TestDecodeBase64ImageNotAnImage(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("plain text"))
	_, _, err := DecodeBase64Image(encoded)
	if !errors.Is(err, ErrImageDecode) {
		t.Fatalf("expected ErrImageDecode, got %v", err)
	}
}

func TestReadTagMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selected_tags.csv")
	content := "tag_id,name,category\n9999,general,9\n0,1girl,0\n1000,hatsune_miku,4\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	names, cats, err := readTagMetadata(path)
	if err != nil {
		t.Fatalf("readTagMetadata: %v", err)
	}
	if len(names) != 3 {
		t.Fatalf("expected header to be skipped, got %v", names)
	}
	if names[0] != "general" || cats[0] != 9 {
		t.Fatalf("unexpected first row: %s/%d", names[0], cats[0])
	}
	if names[2] != "hatsune_miku" || cats[2] != 4 {
		t.Fatalf("unexpected character row: %s/%d", names[2], cats[2])
	}
}

func TestReadTagMetadataHeaderless(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selected_tags.csv")
	if err := os.WriteFile(path, []byte("0,1girl,0\n1,solo,0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	names, _, err := readTagMetadata(path)
	if err != nil {
		t.Fatalf("readTagMetadata: %v", err)
	}
	if len(names) != 2 || names[0] != "1girl" {
		t.Fatalf("numeric first row must be kept: %v", names)
	}
}

func TestReadTagMetadataEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selected_tags.csv")
	if err := os.WriteFile(path, []byte("tag_id,name,category\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := readTagMetadata(path); err == nil {
		t.Fatal("expected error for metadata with no tag rows")
	}
}
