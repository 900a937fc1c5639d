// Package dotdee generates a file from the fragments in its ".d" directory.
//
// Given a target such as /etc/hosts, the fragments live in /etc/hosts.d.
// Every visible entry of that directory is included in natural sort order:
// executable fragments contribute their standard output, other fragments
// their contents. The blocks are joined with a blank line and the result
// always ends in exactly one newline.
//
// The first update of a target that is not managed yet moves the existing
// file to <target>.d/local, so nothing is lost. After every write a SHA-1
// checksum of the generated contents is stored in <target>.d/.checksum.
// If the target was edited by hand since, the next update refuses to
// overwrite it unless forced.
//
// All file system and process access goes through a contexts.Context, so
// the same code manages files locally, through sudo, or on a remote host.
package dotdee
