// Package reposcan is the Repository Probe: it discovers Borg repositories
// by scanning a base directory for config files, classifies their
// encryption mode by heuristic, and verifies access via a dry-run listing
// (spec §4.H).
package reposcan

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mlapaglia/borgitory-go/internal/borgcmd"
	"github.com/mlapaglia/borgitory-go/internal/domain"
	"github.com/mlapaglia/borgitory-go/internal/executor"
)

// repokeyMinLength is the heuristic threshold for "looks like a repokey
// blob" (spec §4.H: "key value length > 50").
const repokeyMinLength = 50

// Candidate is one detected repository config.
type Candidate struct {
	Path            string
	ID              string
	EncryptionMode  domain.EncryptionMode
	RequiresKeyfile bool
	PreviewText     string
}

// Scan walks baseDir looking for files named "config" whose contents
// contain a "[repository]" section, returning one Candidate per hit.
func Scan(baseDir string) ([]Candidate, error) {
	var out []Candidate
	err := filepath.Walk(baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || info.Name() != "config" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		if !bytes.Contains(data, []byte("[repository]")) {
			return nil
		}
		out = append(out, classify(path, data))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reposcan: scan %s: %w", baseDir, err)
	}
	return out, nil
}

// parsedConfig is the handful of fields this probe reads out of Borg's INI
// config file; the rest of the file is irrelevant to classification.
type parsedConfig struct {
	id      string
	keyLine string // raw value after "key =", empty if absent
	hasKey  bool
}

func parseConfig(data []byte) parsedConfig {
	var pc parsedConfig
	scanner := bufio.NewScanner(bytes.NewReader(data))
	inRepository := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "[") {
			inRepository = line == "[repository]"
			continue
		}
		if !inRepository || line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "id":
			pc.id = value
		case "key":
			pc.hasKey = true
			pc.keyLine = value
		}
	}
	return pc
}

// classify applies the spec §4.H heuristic to one config file found at
// path (the repository directory is path's parent).
func classify(path string, data []byte) Candidate {
	pc := parseConfig(data)
	repoDir := filepath.Dir(path)

	c := Candidate{
		Path:        repoDir,
		ID:          pc.id,
		PreviewText: previewText(data),
	}

	switch {
	case pc.hasKey && len(pc.keyLine) > repokeyMinLength:
		c.EncryptionMode = domain.EncryptionRepokey
	case hasSiblingKeyfile(repoDir):
		c.EncryptionMode = domain.EncryptionKeyfile
		c.RequiresKeyfile = true
	case !pc.hasKey:
		c.EncryptionMode = domain.EncryptionNone
	default:
		// Config parsed but the mode is ambiguous (e.g. a "key =" line
		// present but too short to look like a real repokey blob and no
		// sibling keyfile). Spec §4.H: conservative default is repokey.
		c.EncryptionMode = domain.EncryptionRepokey
	}
	return c
}

func hasSiblingKeyfile(repoDir string) bool {
	entries, err := os.ReadDir(repoDir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "key.") {
			return true
		}
	}
	return false
}

func previewText(data []byte) string {
	const maxPreview = 500
	if len(data) > maxPreview {
		return string(data[:maxPreview])
	}
	return string(data)
}

// VerifyAccess runs a JSON listing command against repoPath with the
// supplied passphrase; exit code 0 AND parseable JSON output together mean
// access is verified (spec §4.H). Any other outcome means "not verified",
// reported as a domain-level VerifyError rather than a generic error so
// the import flow can discard on-disk artefacts and refuse to persist the
// repository (spec §7).
func VerifyAccess(ctx context.Context, runner executor.Runner, repoPath, passphrase string) error {
	argv := borgcmd.Builder{}.ListArchives(repoPath)
	env := borgcmd.Builder{}.Env(passphrase)

	h, err := runner.Start(ctx, argv, env, "")
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrVerify, err)
	}

	var buf bytes.Buffer
	res := runner.Monitor(h, func(line, tag string) {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}, nil)

	if res.ReturnCode != 0 {
		return fmt.Errorf("%w: exit code %d", domain.ErrVerify, res.ReturnCode)
	}
	if !json.Valid(extractJSONObject(buf.Bytes())) {
		return fmt.Errorf("%w: output was not valid JSON", domain.ErrVerify)
	}
	return nil
}

// ImportFunc persists a newly validated repository row, returning the
// assigned id. Provided by the caller (the Manager's submit-time
// dependencies) so this package has no direct store import.
type ImportFunc func() (string, error)

// VerifyAndDiscard runs VerifyAccess before calling persist, and removes
// any on-disk artefact onDiscard produced if verification or persistence
// fails, so an import never leaves a half-registered repository behind
// (supplemented from the original implementation's transactional import
// flow; spec §4.H, §7 VerifyError contract).
func VerifyAndDiscard(ctx context.Context, runner executor.Runner, repoPath, passphrase string, persist ImportFunc, onDiscard func()) (string, error) {
	if err := VerifyAccess(ctx, runner, repoPath, passphrase); err != nil {
		if onDiscard != nil {
			onDiscard()
		}
		return "", err
	}
	id, err := persist()
	if err != nil {
		if onDiscard != nil {
			onDiscard()
		}
		return "", fmt.Errorf("reposcan: persist imported repository: %w", err)
	}
	return id, nil
}

// extractJSONObject returns the substring between the first '{' and last
// '}' in raw, matching the parsing convention spec §6 prescribes for
// `borg list --json` output.
func extractJSONObject(raw []byte) []byte {
	start := bytes.IndexByte(raw, '{')
	end := bytes.LastIndexByte(raw, '}')
	if start < 0 || end < 0 || end < start {
		return nil
	}
	return raw[start : end+1]
}
