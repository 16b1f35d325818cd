package hack

import (
	"bytes"
	"reflect"
	"unsafe"

	"github.com/goccy/go-json"
	"github.com/inoxlang/tickscript/internal/utils"
	"github.com/rs/zerolog"
)

// AddReplaceLoggerStringFieldValue sets the string field key in the context of logger: the current value is
// replaced in place if the field is present, otherwise the field is appended.
func AddReplaceLoggerStringFieldValue(logger zerolog.Logger, key string, newValue string) zerolog.Logger {
	contextField := reflect.ValueOf(&logger).Elem().FieldByName("context")
	fields := unexportedField(contextField).Interface().([]byte)

	start, end, ok := locateStringField(fields, utils.Must(json.Marshal(key)))
	if !ok {
		return logger.With().Str(key, newValue).Logger()
	}

	updated := make([]byte, 0, len(fields)+len(newValue))
	updated = append(updated, fields[:start]...)
	updated = append(updated, utils.Must(json.Marshal(newValue))...)
	updated = append(updated, fields[end:]...)

	unexportedField(contextField).Set(reflect.ValueOf(updated))
	return logger
}

// GetLogEventStringFieldValue returns the value of a string field of an event that has not been written yet,
// quotedKey is the JSON-encoded key (e.g. `"src"`).
func GetLogEventStringFieldValue(event *zerolog.Event, quotedKey string) (string, bool) {
	buf := unexportedField(reflect.ValueOf(event).Elem().FieldByName("buf")).Interface().([]byte)

	start, end, ok := locateStringField(buf, []byte(quotedKey))
	if !ok {
		return "", false
	}
	var value string
	if err := json.Unmarshal(buf[start:end], &value); err != nil {
		return "", false
	}
	return value, true
}

// locateStringField returns the bounds of the JSON string value (quotes included) of the first field whose
// key is quotedKey in fields, a partial JSON object.
func locateStringField(fields []byte, quotedKey []byte) (start, end int, found bool) {
	for i := 1; i+len(quotedKey)+2 < len(fields); i++ {
		//a key starts after ',' or '{', a string value after ':'.
		if fields[i] != '"' || fields[i-1] == ':' || !bytes.HasPrefix(fields[i:], quotedKey) {
			continue
		}
		valueStart := i + len(quotedKey) + 1
		if fields[valueStart-1] != ':' || fields[valueStart] != '"' {
			continue
		}
		for j := valueStart + 1; j < len(fields); j++ {
			if fields[j] == '"' && !isEscaped(fields, j) {
				return valueStart, j + 1, true
			}
		}
		return 0, 0, false
	}
	return 0, 0, false
}

func isEscaped(buf []byte, i int) bool {
	backslashes := 0
	for j := i - 1; j >= 0 && buf[j] == '\\'; j-- {
		backslashes++
	}
	return backslashes%2 == 1
}

// unexportedField returns a settable version of a field of an addressable struct.
func unexportedField(field reflect.Value) reflect.Value {
	return reflect.NewAt(field.Type(), unsafe.Pointer(field.UnsafeAddr())).Elem()
}
