// Package bootconfig serves a customized boot.config to the player by
// intercepting the reads of the file it opens.
package bootconfig

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/venusroot/bootstrap/internal/config"
)

// alwaysEmitted is written even when unset, matching the stock file layout.
const alwaysEmitted = "gfx-enable-native-gfx-jobs"

// Configured reports whether any override is set.
func Configured(o config.BootConfigOverrides) bool {
	v := reflect.ValueOf(o)
	for i := 0; i < v.NumField(); i++ {
		if !v.Field(i).IsNil() {
			return true
		}
	}
	return false
}

// Render writes the overrides as boot.config "key=value" lines in field order.
// Booleans are written as 1 or 0 and unset keys are omitted.
func Render(o config.BootConfigOverrides) string {
	var b strings.Builder

	v := reflect.ValueOf(o)
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		key := strings.Split(t.Field(i).Tag.Get("yaml"), ",")[0]
		f := v.Field(i)

		if f.IsNil() {
			if key == alwaysEmitted {
				b.WriteString(key + "=\n")
			}
			continue
		}

		switch e := f.Elem(); e.Kind() {
		case reflect.Bool:
			if e.Bool() {
				fmt.Fprintf(&b, "%s=1\n", key)
			} else {
				fmt.Fprintf(&b, "%s=0\n", key)
			}
		default:
			fmt.Fprintf(&b, "%s=%v\n", key, e.Interface())
		}
	}

	return b.String()
}
