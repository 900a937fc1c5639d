// Package config loads the settings of the update-dotdee command.
//
// Settings are looked up in three base directories, in this order:
//
//	/etc                           system wide
//	~                              per user, with a leading dot
//	$XDG_CONFIG_HOME or ~/.config  per user
//
// Each base directory yields a main file (for example
// /etc/update-dotdee.yaml or ~/.update-dotdee.yaml) and a directory of
// modular files (/etc/update-dotdee.d/*). Files in a modular directory are
// loaded in natural order. Every file that is found is loaded in turn and
// the fields it sets override those set by earlier files, so user settings
// win over system wide ones.
//
// Files ending in .yaml, .yml or .json are decoded as YAML. Files ending in
// .cue are CUE and are checked against a built-in schema, which reports
// mistakes with file and line information. Either way the merged settings
// are finally checked with struct tag validation.
//
// Example settings file:
//
//	force: false
//	sudo: true
//	log:
//	  level: debug
//	metrics_textfile: /var/lib/node_exporter/update_dotdee.prom
//	ssh:
//	  host: web1.example.com
//	  user: deploy
//	  auth: agent
//
// These settings configure the command only. The files managed by
// update-dotdee are plain fragments and are never parsed.
package config
