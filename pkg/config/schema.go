package config

import (
	"fmt"

	"cuelang.org/go/cue"
)

// settingsSchema constrains CUE settings files. It mirrors Settings and the
// validate tags on it; #Settings is closed, so misspelled fields are
// reported instead of ignored.
const settingsSchema = `
#Log: {
	level?:  "trace" | "debug" | "info" | "warn" | "error" | "fatal"
	format?: "console" | "json"
}

#Tracing: {
	exporter?:      "none" | "stdout" | "otlp"
	endpoint?:      string
	insecure?:      bool
	sampling_rate?: number & >=0 & <=1
}

#SSH: {
	host:                      string & !=""
	port?:                     int & >=1 & <=65535
	user?:                     string
	auth?:                     "password" | "key" | "agent"
	password_env?:             string
	identity?:                 string
	known_hosts?:              string
	strict_host_key_checking?: bool
	timeout?:                  =~"^[0-9]+(ns|us|µs|ms|s|m|h)$"
	proxy_host?:               string
	proxy_port?:               int & >=1 & <=65535
	proxy_user?:               string
}

#Settings: {
	force?:            bool
	sudo?:             bool
	log?:              #Log
	metrics_textfile?: string
	tracing?:          #Tracing
	ssh?:              #SSH
}
`

// compileSchema returns the #Settings definition compiled in ctx. Values
// unified with it must come from the same context.
func compileSchema(ctx *cue.Context) (cue.Value, error) {
	val := ctx.CompileString(settingsSchema, cue.Filename("settings-schema.cue"))
	if err := val.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("failed to compile settings schema: %w", err)
	}
	return val.LookupPath(cue.ParsePath("#Settings")), nil
}
