package pkglog

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/valyala/fastjson"
)

// TextTimeFormat is the timestamp layout of text lines.
const TextTimeFormat = "2006-01-02 15:04:05"

const absentRequestID = "-"

// ErrMalformedRecord is returned when a forwarded line cannot be decoded.
var ErrMalformedRecord = errors.New("pkglog: malformed record")

//nolint:gochecknoglobals // shared pools
var (
	arenaPool  fastjson.ArenaPool
	parserPool fastjson.ParserPool
)

// formatText renders "timestamp | severity | request_id | message".
func formatText(rec *Record) []byte {
	var sb strings.Builder
	sb.WriteString(rec.Time.Format(TextTimeFormat))
	sb.WriteString(" | ")
	sb.WriteString(LevelName(rec.Level))
	sb.WriteString(" | ")
	if cid, ok := rec.RequestID(); ok {
		sb.WriteString(cid)
	} else {
		sb.WriteString(absentRequestID)
	}
	sb.WriteString(" | ")
	sb.WriteString(rec.Message)
	if rec.Exception != "" {
		sb.WriteString("\n")
		sb.WriteString(strings.TrimRight(rec.Exception, "\n"))
	}
	sb.WriteString("\n")
	return []byte(sb.String())
}

// formatJSON renders one JSON object terminated by a newline.
func formatJSON(rec *Record) []byte {
	a := arenaPool.Get()
	defer arenaPool.Put(a)

	o := a.NewObject()
	o.Set("timestamp", a.NewString(rec.Time.Format(time.RFC3339Nano)))
	o.Set("severity", a.NewString(LevelName(rec.Level)))
	if cid, ok := rec.RequestID(); ok {
		o.Set(RequestIDKey, a.NewString(cid))
	} else {
		o.Set(RequestIDKey, a.NewNull())
	}
	o.Set("message", a.NewString(rec.Message))
	if rec.Source != "" {
		o.Set("source", a.NewString(rec.Source))
	}
	if rec.Function != "" {
		o.Set("function", a.NewString(rec.Function))
	}

	extra := a.NewObject()
	for k, v := range rec.Extra {
		if k == RequestIDKey {
			continue
		}
		extra.Set(k, toJSONValue(a, v))
	}
	o.Set("extra", extra)

	if rec.Exception != "" {
		o.Set("exception", a.NewString(rec.Exception))
	}

	b := appendJSON(nil, o)
	return append(b, '\n')
}

// appendJSON marshals v like fastjson's MarshalTo, except that strings go
// through appendJSONString: fastjson quotes strings holding control bytes
// with Go escapes, which JSON readers reject.
func appendJSON(dst []byte, v *fastjson.Value) []byte {
	switch v.Type() {
	case fastjson.TypeString:
		return appendJSONString(dst, string(v.GetStringBytes()))
	case fastjson.TypeObject:
		dst = append(dst, '{')
		first := true
		v.GetObject().Visit(func(key []byte, item *fastjson.Value) {
			if !first {
				dst = append(dst, ',')
			}
			first = false
			dst = appendJSONString(dst, string(key))
			dst = append(dst, ':')
			dst = appendJSON(dst, item)
		})
		return append(dst, '}')
	case fastjson.TypeArray:
		dst = append(dst, '[')
		for i, item := range v.GetArray() {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendJSON(dst, item)
		}
		return append(dst, ']')
	default:
		return v.MarshalTo(dst)
	}
}

const hexDigits = "0123456789abcdef"

// appendJSONString quotes s as a JSON string. Invalid UTF-8 becomes U+FFFD
// and control bytes are written as \u00XX.
func appendJSONString(dst []byte, s string) []byte {
	s = strings.ToValidUTF8(s, "\uFFFD")

	dst = append(dst, '"')
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c != '"' && c != '\\' {
			continue
		}
		dst = append(dst, s[start:i]...)
		switch c {
		case '"', '\\':
			dst = append(dst, '\\', c)
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
		}
		start = i + 1
	}
	dst = append(dst, s[start:]...)
	return append(dst, '"')
}

func toJSONValue(a *fastjson.Arena, v any) *fastjson.Value {
	switch val := v.(type) {
	case nil:
		return a.NewNull()
	case string:
		return a.NewString(val)
	case bool:
		if val {
			return a.NewTrue()
		}
		return a.NewFalse()
	case int:
		return a.NewNumberInt(val)
	case int64:
		return a.NewNumberString(strconv.FormatInt(val, 10))
	case uint64:
		return a.NewNumberString(strconv.FormatUint(val, 10))
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return a.NewString(strconv.FormatFloat(val, 'g', -1, 64))
		}
		return a.NewNumberFloat64(val)
	case time.Time:
		return a.NewString(val.Format(time.RFC3339Nano))
	case time.Duration:
		return a.NewString(val.String())
	case error:
		return a.NewString(val.Error())
	case map[string]any:
		o := a.NewObject()
		for k, item := range val {
			o.Set(k, toJSONValue(a, item))
		}
		return o
	case []any:
		arr := a.NewArray()
		for i, item := range val {
			arr.SetArrayItem(i, toJSONValue(a, item))
		}
		return arr
	case fmt.Stringer:
		return a.NewString(val.String())
	default:
		return a.NewString(fmt.Sprint(val))
	}
}

// decodeRecord parses a line produced by formatJSON.
func decodeRecord(line []byte) (*Record, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(line)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	ts, err := time.Parse(time.RFC3339Nano, string(v.GetStringBytes("timestamp")))
	if err != nil {
		return nil, fmt.Errorf("%w: timestamp: %w", ErrMalformedRecord, err)
	}
	level, ok := parseLevelName(string(v.GetStringBytes("severity")))
	if !ok {
		return nil, fmt.Errorf("%w: severity %q", ErrMalformedRecord, v.GetStringBytes("severity"))
	}

	rec := &Record{
		Time:      ts,
		Level:     level,
		Message:   string(v.GetStringBytes("message")),
		Source:    string(v.GetStringBytes("source")),
		Function:  string(v.GetStringBytes("function")),
		Exception: string(v.GetStringBytes("exception")),
		Extra:     map[string]any{RequestIDKey: nil},
	}
	if cid := v.GetStringBytes(RequestIDKey); len(cid) > 0 {
		rec.Extra[RequestIDKey] = string(cid)
	}
	if extra := v.GetObject("extra"); extra != nil {
		extra.Visit(func(key []byte, item *fastjson.Value) {
			rec.Extra[string(key)] = fromJSONValue(item)
		})
	}
	return rec, nil
}

func fromJSONValue(v *fastjson.Value) any {
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber:
		if n, err := v.Int64(); err == nil {
			return n
		}
		return v.GetFloat64()
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	case fastjson.TypeObject:
		m := make(map[string]any)
		v.GetObject().Visit(func(key []byte, item *fastjson.Value) {
			m[string(key)] = fromJSONValue(item)
		})
		return m
	case fastjson.TypeArray:
		items := v.GetArray()
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = fromJSONValue(item)
		}
		return out
	default:
		return nil
	}
}

func shortSource(file string, line int) string {
	if strings.Contains(file, "/internal/") {
		return filepath.Join("internal", strings.SplitAfter(file, "/internal/")[1]) + ":" + strconv.Itoa(line)
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}
