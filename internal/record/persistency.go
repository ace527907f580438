package record

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

const workInProgressFileSuffix = ".wip"
const recordContentOpener = "RECORD>>>"
const recordContentTerminator = "<<<RECORD"
const recordSemanticVersion = "1.0.0"
const semVerPattern = `^(?P<major>0|[1-9]\d*)\.(?P<minor>0|[1-9]\d*)\.(?P<patch>0|[1-9]\d*)(?:-(?P<prerelease>(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*)(?:\.(?:0|[1-9]\d*|\d*[a-zA-Z-][0-9a-zA-Z-]*))*))?(?:\+(?P<buildmetadata>[0-9a-zA-Z-]+(?:\.[0-9a-zA-Z-]+)*))?$`

var semanticVersionRegex = regexp.MustCompile(semVerPattern)
var semanticVersionMajorSubmatchIndex = semanticVersionRegex.SubexpIndex("major")

// ErrNoRecord is returned by Load if no build has been recorded yet.
var ErrNoRecord = errors.New("no build recorded")

// Save writes the record to a temporary file first and replaces the previous record only once that succeeded.
func Save(path string, r *Record) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("saving build record failed: %w", err)
		}
	}()

	tempPath := path + workInProgressFileSuffix
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			file.Close()
			os.Remove(tempPath)
		}
	}()

	compressor, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return err
	}

	writeLine := func(text string) error {
		_, err := io.WriteString(compressor, text+"\n")
		return err
	}
	if err = writeLine(recordSemanticVersion); err != nil {
		return err
	}
	if err = writeLine(recordContentOpener); err != nil {
		return err
	}
	encoder := json.NewEncoder(compressor)
	encoder.SetIndent("", "\t")
	if err = encoder.Encode(r); err != nil {
		return err
	}
	if err = writeLine(recordContentTerminator); err != nil {
		return err
	}
	if err = compressor.Close(); err != nil {
		return err
	}
	if err = file.Close(); err != nil {
		return err
	}

	if err = os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("replacing record file (%s) with temporary working copy (%s) failed: %w", path, tempPath, err)
	}
	return nil
}

// Load reads a record written by Save. A missing file yields ErrNoRecord, a leftover temporary file is reported as error.
func Load(path string) (r *Record, err error) {
	defer func() {
		if err != nil && !errors.Is(err, ErrNoRecord) {
			err = fmt.Errorf("loading build record %s failed: %w", path, err)
		}
	}()

	leftoverWorkInProgressFile := path + workInProgressFileSuffix
	if _, statErr := os.Stat(leftoverWorkInProgressFile); !errors.Is(statErr, os.ErrNotExist) {
		return nil, fmt.Errorf("old %s-file exists, manual intervention necessary", workInProgressFileSuffix)
	}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoRecord
	} else if err != nil {
		return nil, err
	}
	defer file.Close()

	decompressor, err := zstd.NewReader(file)
	if err != nil {
		return nil, err
	}
	defer decompressor.Close()
	reader := bufio.NewReader(decompressor)

	textUntilNewline := func() (string, error) {
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("record truncated: %w", err)
		}
		return strings.TrimSuffix(line, "\n"), nil
	}

	fileVersion, err := textUntilNewline()
	if err != nil {
		return nil, err
	}
	fileVersionMatch := semanticVersionRegex.FindStringSubmatch(fileVersion)
	if fileVersionMatch == nil {
		return nil, errors.New("record corrupted, version not found")
	}
	appVersionMatch := semanticVersionRegex.FindStringSubmatch(recordSemanticVersion)
	if fileVersionMatch[semanticVersionMajorSubmatchIndex] != appVersionMatch[semanticVersionMajorSubmatchIndex] {
		return nil, fmt.Errorf("incompatible record version: %s", fileVersion)
	}

	if opener, err := textUntilNewline(); err != nil {
		return nil, err
	} else if opener != recordContentOpener {
		return nil, fmt.Errorf("record corrupted, unexpected line %q", opener)
	}

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	loaded := &Record{}
	if err = decoder.Decode(loaded); err != nil {
		return nil, err
	}
	if loaded.Fragments == nil {
		loaded.Fragments = make(map[string]string)
	}

	var termination strings.Builder
	io.Copy(&termination, decoder.Buffered())
	io.Copy(&termination, reader)
	if !strings.HasPrefix(termination.String(), "\n"+recordContentTerminator) { //newline courtesy of the encoder
		return nil, fmt.Errorf("unexpected record termination: %q", termination.String())
	}
	return loaded, nil
}
