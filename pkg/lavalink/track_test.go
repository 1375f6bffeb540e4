package lavalink

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"testing"
)

func sampleInfo() TrackInfo {
	return TrackInfo{
		Identifier: "dQw4w9WgXcQ",
		IsSeekable: true,
		Author:     "Rick Astley",
		Length:     212000,
		IsStream:   false,
		Position:   0,
		Title:      "Never Gonna Give You Up",
		URI:        "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		ArtworkURL: "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg",
		ISRC:       "GBARL9300135",
		SourceName: "youtube",
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := sampleInfo()

	encoded, err := EncodeTrack(want)
	if err != nil {
		t.Fatalf("EncodeTrack() returned error: %v", err)
	}

	got, err := DecodeTrackInfo(encoded)
	if err != nil {
		t.Fatalf("DecodeTrackInfo() returned error: %v", err)
	}

	if got.Title != want.Title {
		t.Errorf("Title = %v, want %v", got.Title, want.Title)
	}
	if got.Author != want.Author {
		t.Errorf("Author = %v, want %v", got.Author, want.Author)
	}
	if got.Length != want.Length {
		t.Errorf("Length = %v, want %v", got.Length, want.Length)
	}
	if got.Identifier != want.Identifier {
		t.Errorf("Identifier = %v, want %v", got.Identifier, want.Identifier)
	}
	if got.IsStream != want.IsStream {
		t.Errorf("IsStream = %v, want %v", got.IsStream, want.IsStream)
	}
	if got.URI != want.URI {
		t.Errorf("URI = %v, want %v", got.URI, want.URI)
	}
	if got.ArtworkURL != want.ArtworkURL {
		t.Errorf("ArtworkURL = %v, want %v", got.ArtworkURL, want.ArtworkURL)
	}
	if got.ISRC != want.ISRC {
		t.Errorf("ISRC = %v, want %v", got.ISRC, want.ISRC)
	}
	if got.SourceName != want.SourceName {
		t.Errorf("SourceName = %v, want %v", got.SourceName, want.SourceName)
	}
	if !got.IsSeekable {
		t.Error("IsSeekable should be true for a non-stream track")
	}
}

func TestReencodeIsStable(t *testing.T) {
	encoded, err := EncodeTrack(sampleInfo())
	if err != nil {
		t.Fatalf("EncodeTrack() returned error: %v", err)
	}

	decoded, err := DecodeTrackInfo(encoded)
	if err != nil {
		t.Fatalf("DecodeTrackInfo() returned error: %v", err)
	}

	again, err := EncodeTrack(decoded)
	if err != nil {
		t.Fatalf("EncodeTrack() on decoded info returned error: %v", err)
	}
	if again != encoded {
		t.Errorf("re-encoding changed the handle:\n got %v\nwant %v", again, encoded)
	}
}

func TestDecodeStreamIsNotSeekable(t *testing.T) {
	info := sampleInfo()
	info.IsStream = true
	info.Length = 0

	encoded, err := EncodeTrack(info)
	if err != nil {
		t.Fatalf("EncodeTrack() returned error: %v", err)
	}
	got, err := DecodeTrackInfo(encoded)
	if err != nil {
		t.Fatalf("DecodeTrackInfo() returned error: %v", err)
	}
	if got.IsSeekable {
		t.Error("IsSeekable should be false for a stream")
	}
}

// buildBody wraps a raw body in the 4-byte header, optionally setting the
// version flag bit.
func buildBody(body []byte, versioned bool) string {
	header := uint32(len(body))
	if versioned {
		header |= trackVersioned
	}
	out := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(out, header)
	copy(out[4:], body)
	return base64.StdEncoding.EncodeToString(out)
}

func TestDecodeVersionTwoSkipsArtwork(t *testing.T) {
	w := &trackWriter{}
	w.writeByte(2)
	w.writeUTF("title")
	w.writeUTF("author")
	w.writeInt64(1000)
	w.writeUTF("id")
	w.writeBool(false)
	w.writeNullableUTF("https://example.com/track")
	w.writeUTF("http")
	w.writeInt64(0)

	info, err := DecodeTrackInfo(buildBody(w.buf.Bytes(), true))
	if err != nil {
		t.Fatalf("DecodeTrackInfo() returned error: %v", err)
	}
	if info.URI != "https://example.com/track" {
		t.Errorf("URI = %v, want https://example.com/track", info.URI)
	}
	if info.ArtworkURL != "" || info.ISRC != "" {
		t.Error("version 2 tracks must not carry artwork or isrc")
	}
}

func TestDecodeUnversionedDefaultsToOne(t *testing.T) {
	w := &trackWriter{}
	w.writeUTF("title")
	w.writeUTF("author")
	w.writeInt64(1000)
	w.writeUTF("id")
	w.writeBool(false)
	w.writeUTF("local")
	w.writeInt64(42)

	info, err := DecodeTrackInfo(buildBody(w.buf.Bytes(), false))
	if err != nil {
		t.Fatalf("DecodeTrackInfo() returned error: %v", err)
	}
	if info.URI != "" {
		t.Errorf("URI = %v, want empty for version 1", info.URI)
	}
	if info.Position != 42 {
		t.Errorf("Position = %v, want 42", info.Position)
	}
	if info.SourceName != "local" {
		t.Errorf("SourceName = %v, want local", info.SourceName)
	}
}

func TestDecodeExtraBytesSurviveReencode(t *testing.T) {
	w := &trackWriter{}
	w.writeByte(3)
	w.writeUTF("title")
	w.writeUTF("author")
	w.writeInt64(1000)
	w.writeUTF("id")
	w.writeBool(false)
	w.writeNullableUTF("uri")
	w.writeNullableUTF("")
	w.writeNullableUTF("")
	w.writeUTF("spotify")
	w.buf.Write([]byte{0xde, 0xad, 0xbe, 0xef})
	w.writeInt64(0)

	encoded := buildBody(w.buf.Bytes(), true)
	info, err := DecodeTrackInfo(encoded)
	if err != nil {
		t.Fatalf("DecodeTrackInfo() returned error: %v", err)
	}

	again, err := EncodeTrack(info)
	if err != nil {
		t.Fatalf("EncodeTrack() returned error: %v", err)
	}
	if again != encoded {
		t.Error("source-specific bytes were not carried through re-encoding")
	}
}

func TestDecodeErrors(t *testing.T) {
	valid, err := EncodeTrack(sampleInfo())
	if err != nil {
		t.Fatalf("EncodeTrack() returned error: %v", err)
	}
	raw, _ := base64.StdEncoding.DecodeString(valid)

	badVersion := &trackWriter{}
	badVersion.writeByte(4)
	badVersion.writeUTF("title")

	truncated := &trackWriter{}
	truncated.writeByte(3)
	truncated.writeUTF("title")

	tests := []struct {
		name    string
		encoded string
	}{
		{"not base64", "%%%not-base64%%%"},
		{"too short for header", base64.StdEncoding.EncodeToString([]byte{1, 2})},
		{"size mismatch", base64.StdEncoding.EncodeToString(raw[:len(raw)-3])},
		{"unsupported version", buildBody(badVersion.buf.Bytes(), true)},
		{"truncated body", buildBody(truncated.buf.Bytes(), true)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeTrackInfo(tt.encoded)
			if err == nil {
				t.Fatal("DecodeTrackInfo() should fail")
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Errorf("error type = %T, want *DecodeError", err)
			}
		})
	}
}

func TestNewTrackKeepsRequester(t *testing.T) {
	track, err := NewTrack(sampleInfo(), "user-123")
	if err != nil {
		t.Fatalf("NewTrack() returned error: %v", err)
	}
	if track.Encoded == "" {
		t.Error("NewTrack() should produce an encoded handle")
	}
	if track.RequestedBy != "user-123" {
		t.Errorf("RequestedBy = %v, want user-123", track.RequestedBy)
	}

	decoded, err := DecodeTrack(track.Encoded)
	if err != nil {
		t.Fatalf("DecodeTrack() returned error: %v", err)
	}
	if decoded.Info.Title != track.Info.Title {
		t.Errorf("Title = %v, want %v", decoded.Info.Title, track.Info.Title)
	}
}
