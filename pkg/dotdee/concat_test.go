package dotdee

import "testing"

func TestConcatenate(t *testing.T) {
	tests := []struct {
		name   string
		blocks []string
		want   string
	}{
		{name: "no blocks", blocks: nil, want: "\n"},
		{name: "single block", blocks: []string{"a"}, want: "a\n"},
		{name: "blank line between blocks", blocks: []string{"a", "b"}, want: "a\n\nb\n"},
		{name: "trailing whitespace trimmed", blocks: []string{"a", "b \n\t\n"}, want: "a\n\nb\n"},
		{name: "leading whitespace kept", blocks: []string{"  a"}, want: "  a\n"},
		{name: "empty last block", blocks: []string{"a", ""}, want: "a\n"},
		{name: "empty middle block", blocks: []string{"a", "", "c"}, want: "a\n\n\n\nc\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks := make([][]byte, len(tt.blocks))
			for i, b := range tt.blocks {
				blocks[i] = []byte(b)
			}
			if got := string(Concatenate(blocks)); got != tt.want {
				t.Errorf("Concatenate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChecksum(t *testing.T) {
	// sha1("") and sha1("abc")
	tests := map[string]string{
		"":    "da39a3ee5e6b4b0d3255bfef95601890afd80709",
		"abc": "a9993e364706816aba3e25717850c26c9cd0d89d",
	}
	for input, want := range tests {
		if got := Checksum([]byte(input)); got != want {
			t.Errorf("Checksum(%q) = %s, want %s", input, got, want)
		}
	}
}

func TestRefuseToOverwriteError(t *testing.T) {
	err := error(&RefuseToOverwriteError{Filename: "/etc/hosts", ChecksumFile: "/etc/hosts.d/.checksum"})
	want := "The contents of the file to generate (/etc/hosts) were modified and I'm refusing to overwrite it! " +
		"If you're sure you want to proceed, use the --force option or delete the file /etc/hosts.d/.checksum and retry."
	if err.Error() != want {
		t.Errorf("Error() = %q", err.Error())
	}
	if !IsRefuseToOverwrite(&FragmentError{Path: "x", Err: err}) {
		t.Error("IsRefuseToOverwrite should see through wrapping")
	}
}
