package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/JonMunkholm/campaignsplit/internal/core"
)

func TestReportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "coded run failure prints user message",
			err: core.NewUserError(fmt.Errorf("reconcile client: %w",
				&core.SchemaError{Group: "client", Source: "bank.csv.zip/client.csv", Column: "mortgage"})),
			want: "error: A table is missing a column its group requires (Code: SCH001).",
		},
		{
			name: "uncoded run failure prints cause",
			err:  core.NewUserError(errors.New("sqlite: disk I/O error")),
			want: "error: sqlite: disk I/O error\n",
		},
		{
			name: "error outside the pipeline printed as is",
			err:  errors.New("config: INPUT_DIR is required"),
			want: "error: config: INPUT_DIR is required\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			reportError(&buf, tt.err)
			if !strings.HasPrefix(buf.String(), tt.want) {
				t.Errorf("reportError() wrote %q, want prefix %q", buf.String(), tt.want)
			}
		})
	}
}
