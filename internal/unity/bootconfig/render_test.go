package bootconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/venusroot/bootstrap/internal/config"
)

func ptr[T any](v T) *T { return &v }

func TestRender(t *testing.T) {
	tests := []struct {
		name      string
		overrides config.BootConfigOverrides
		want      string
	}{
		{
			name: "empty keeps the leading key",
			want: "gfx-enable-native-gfx-jobs=\n",
		},
		{
			name: "booleans and values in key order",
			overrides: config.BootConfigOverrides{
				SingleInstance:                  ptr(false),
				ScriptingRuntimeVersion:         ptr("latest"),
				GfxEnableNativeGfxJobs:          ptr(true),
				MaxNumLoopsNoJobBeforeGoingIdle: ptr(4),
			},
			want: "gfx-enable-native-gfx-jobs=1\n" +
				"scripting-runtime-version=latest\n" +
				"max-num-loops-no-job-before-going-idle=4\n" +
				"single-instance=0\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.overrides))
		})
	}
}

func TestConfigured(t *testing.T) {
	assert.False(t, Configured(config.BootConfigOverrides{}))
	assert.True(t, Configured(config.BootConfigOverrides{Headless: ptr(false)}))
}
