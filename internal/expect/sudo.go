package expect

import (
	"context"
	"io"
	"log"
	"regexp"
	"time"
)

// Password prompt forms observed across target distributions:
//
//	fedora16-64:  [sudo] password for itestuser5707:
//	suse121-32b:  root's password:
//	suse122-32b:  itestuser23794's password:
//	u1110-32b:    [sudo] password for itester:
const SudoPromptPattern = `\[sudo\] password for .*?:|root's password:|.*?'s password:`

var sudoPrompt = regexp.MustCompile(SudoPromptPattern)

// SudoRules returns the always-first rule set that answers elevation
// prompts with the configured credential.
func SudoRules(password string) []Rule {
	return []Rule{{Pattern: sudoPrompt, Response: password}}
}

const sudoTimeout = 10 * time.Second

// Sudo runs "sudo <cmdline>" through the automaton, answering the password
// prompt automatically, and returns the command's exit status.
func Sudo(ctx context.Context, cmdline, password string, output io.Writer) (int, error) {
	log.Printf("sudo %s", cmdline)
	return Call(ctx, "/bin/sh", []string{"-c", "sudo " + cmdline}, Options{
		Rules:           SudoRules(password),
		Output:          output,
		AbsoluteTimeout: sudoTimeout,
	})
}
