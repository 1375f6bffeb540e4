package lavalink

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"io"
)

// The encoded track format is a base64 wrapper around a length-prefixed
// big-endian binary body: a 4-byte header whose low 30 bits carry the body
// size and whose bit 30 flags a leading version byte, followed by the track
// fields in fixed order. Unknown source-specific bytes between sourceName
// and the trailing position are carried through opaquely so re-encoding a
// decoded track reproduces the original body.

const (
	trackVersioned  = 1 << 30
	trackSizeMask   = trackVersioned - 1
	trackVersionMax = 3
)

// TrackInfo is the decoded descriptor of an encoded track handle.
type TrackInfo struct {
	Identifier string `json:"identifier"`
	IsSeekable bool   `json:"isSeekable"`
	Author     string `json:"author"`
	Length     int64  `json:"length"`
	IsStream   bool   `json:"isStream"`
	Position   int64  `json:"position"`
	Title      string `json:"title"`
	URI        string `json:"uri"`
	ArtworkURL string `json:"artworkUrl"`
	ISRC       string `json:"isrc"`
	SourceName string `json:"sourceName"`

	version byte
	extra   []byte
}

// Track pairs the opaque encoded handle with its decoded descriptor.
// Tracks are immutable once built; copies move between queue, current and
// history.
type Track struct {
	Encoded     string    `json:"encoded"`
	Info        TrackInfo `json:"info"`
	RequestedBy any       `json:"-"`
}

// NewTrack encodes the descriptor into a fresh track handle.
func NewTrack(info TrackInfo, requestedBy any) (*Track, error) {
	encoded, err := EncodeTrack(info)
	if err != nil {
		return nil, err
	}
	return &Track{Encoded: encoded, Info: info, RequestedBy: requestedBy}, nil
}

// DecodeTrack decodes an opaque encoded handle into a Track.
func DecodeTrack(encoded string) (*Track, error) {
	info, err := DecodeTrackInfo(encoded)
	if err != nil {
		return nil, err
	}
	return &Track{Encoded: encoded, Info: info}, nil
}

// DecodeTrackInfo decodes the binary track format. Truncated buffers and
// version bytes above the known maximum fail with a DecodeError.
func DecodeTrackInfo(encoded string) (TrackInfo, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return TrackInfo{}, &DecodeError{Reason: "invalid base64: " + err.Error()}
	}
	if len(raw) < 4 {
		return TrackInfo{}, &DecodeError{Reason: "buffer too short for header"}
	}

	header := binary.BigEndian.Uint32(raw[:4])
	body := raw[4:]
	if int(header&trackSizeMask) != len(body) {
		return TrackInfo{}, &DecodeError{Reason: "body size mismatch"}
	}

	r := &trackReader{buf: bytes.NewReader(body)}
	version := byte(1)
	if header&trackVersioned != 0 {
		version = r.readByte()
	}
	if r.err == nil && version > trackVersionMax {
		return TrackInfo{}, &DecodeError{Reason: "unsupported track version"}
	}

	info := TrackInfo{version: version}
	info.Title = r.readUTF()
	info.Author = r.readUTF()
	info.Length = r.readInt64()
	info.Identifier = r.readUTF()
	info.IsStream = r.readBool()
	if version >= 2 {
		info.URI = r.readNullableUTF()
	}
	if version >= 3 {
		info.ArtworkURL = r.readNullableUTF()
		info.ISRC = r.readNullableUTF()
	}
	info.SourceName = r.readUTF()

	// Whatever sits between sourceName and the trailing position is
	// source-specific detail; carry it through untouched.
	rest := r.remaining()
	if r.err != nil || len(rest) < 8 {
		return TrackInfo{}, &DecodeError{Reason: "truncated track body"}
	}
	if len(rest) > 8 {
		info.extra = append([]byte(nil), rest[:len(rest)-8]...)
	}
	info.Position = int64(binary.BigEndian.Uint64(rest[len(rest)-8:]))
	info.IsSeekable = !info.IsStream

	return info, nil
}

// EncodeTrack writes the descriptor back into the binary track format.
// Decoding the result yields the same descriptor.
func EncodeTrack(info TrackInfo) (string, error) {
	version := info.version
	if version == 0 {
		version = trackVersionMax
	}
	if version > trackVersionMax {
		return "", &DecodeError{Reason: "unsupported track version"}
	}

	w := &trackWriter{}
	w.writeByte(version)
	w.writeUTF(info.Title)
	w.writeUTF(info.Author)
	w.writeInt64(info.Length)
	w.writeUTF(info.Identifier)
	w.writeBool(info.IsStream)
	if version >= 2 {
		w.writeNullableUTF(info.URI)
	}
	if version >= 3 {
		w.writeNullableUTF(info.ArtworkURL)
		w.writeNullableUTF(info.ISRC)
	}
	w.writeUTF(info.SourceName)
	w.buf.Write(info.extra)
	w.writeInt64(info.Position)

	body := w.buf.Bytes()
	out := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(out, uint32(len(body))|trackVersioned)
	copy(out[4:], body)
	return base64.StdEncoding.EncodeToString(out), nil
}

type trackReader struct {
	buf *bytes.Reader
	err error
}

func (r *trackReader) readByte() byte {
	if r.err != nil {
		return 0
	}
	b, err := r.buf.ReadByte()
	if err != nil {
		r.err = err
	}
	return b
}

func (r *trackReader) readBool() bool {
	return r.readByte() != 0
}

func (r *trackReader) readInt64() int64 {
	if r.err != nil {
		return 0
	}
	var raw [8]byte
	if _, err := io.ReadFull(r.buf, raw[:]); err != nil {
		r.err = err
		return 0
	}
	return int64(binary.BigEndian.Uint64(raw[:]))
}

func (r *trackReader) readUTF() string {
	if r.err != nil {
		return ""
	}
	var size [2]byte
	if _, err := io.ReadFull(r.buf, size[:]); err != nil {
		r.err = err
		return ""
	}
	raw := make([]byte, binary.BigEndian.Uint16(size[:]))
	if _, err := io.ReadFull(r.buf, raw); err != nil {
		r.err = err
		return ""
	}
	return string(raw)
}

func (r *trackReader) readNullableUTF() string {
	if !r.readBool() {
		return ""
	}
	return r.readUTF()
}

func (r *trackReader) remaining() []byte {
	if r.err != nil {
		return nil
	}
	rest := make([]byte, r.buf.Len())
	_, _ = io.ReadFull(r.buf, rest)
	return rest
}

type trackWriter struct {
	buf bytes.Buffer
}

func (w *trackWriter) writeByte(b byte) {
	w.buf.WriteByte(b)
}

func (w *trackWriter) writeBool(b bool) {
	if b {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

func (w *trackWriter) writeInt64(v int64) {
	var raw [8]byte
	binary.BigEndian.PutUint64(raw[:], uint64(v))
	w.buf.Write(raw[:])
}

func (w *trackWriter) writeUTF(s string) {
	var size [2]byte
	binary.BigEndian.PutUint16(size[:], uint16(len(s)))
	w.buf.Write(size[:])
	w.buf.WriteString(s)
}

func (w *trackWriter) writeNullableUTF(s string) {
	w.writeBool(s != "")
	if s != "" {
		w.writeUTF(s)
	}
}
