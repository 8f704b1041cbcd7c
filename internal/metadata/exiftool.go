package metadata

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"
)

// ExifTool keeps one exiftool process open in -stay_open mode and feeds it one
// request per file, which avoids paying the perl start-up cost for every picture.
// It is safe for concurrent use.
type ExifTool struct {
	executable string
	readyToken []byte

	lock    sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  io.ReadCloser
	scanner *bufio.Scanner
}

var (
	exiftoolOpenArgs  = []string{"-stay_open", "True", "-@", "-", "-common_args"}
	exiftoolCloseArgs = []string{"-stay_open", "False", "-execute"}
	exiftoolReadArgs  = []string{"-json", "-api", "largefilesupport=1", "-DateTimeOriginal", "-Make", "-Model", "-GPSPosition"}
)

var ErrExifToolClosed = errors.New("exiftool is not running")

func readyToken() []byte {
	if runtime.GOOS == "windows" {
		return []byte("{ready}\r\n")
	}
	return []byte("{ready}\n")
}

// StartExifTool launches executable ("exiftool" when empty).
func StartExifTool(executable string) (*ExifTool, error) {
	if executable == "" {
		executable = "exiftool"
	}
	et := &ExifTool{executable: executable, readyToken: readyToken()}

	cmd := exec.Command(et.executable, exiftoolOpenArgs...)
	r, w := io.Pipe()
	cmd.Stdout = w
	cmd.Stderr = w

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("exiftool stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", et.executable, err)
	}
	go func() {
		w.CloseWithError(cmd.Wait())
	}()

	et.cmd = cmd
	et.stdin = stdin
	et.stdout = r
	et.scanner = bufio.NewScanner(r)
	et.scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	et.scanner.Split(et.splitReadyToken)
	return et, nil
}

func (et *ExifTool) splitReadyToken(data []byte, atEOF bool) (int, []byte, error) {
	idx := bytes.Index(data, et.readyToken)
	if idx == -1 {
		if atEOF && len(data) > 0 {
			return 0, data, fmt.Errorf("no final token found")
		}
		return 0, nil, nil
	}
	return idx + len(et.readyToken), data[:idx], nil
}

// Close asks exiftool to exit.
func (et *ExifTool) Close() error {
	et.lock.Lock()
	defer et.lock.Unlock()

	if et.stdin == nil {
		return nil
	}
	var errs []error
	for _, v := range exiftoolCloseArgs {
		if _, err := fmt.Fprintln(et.stdin, v); err != nil {
			errs = append(errs, err)
			break
		}
	}
	if err := et.stdin.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close exiftool stdin: %w", err))
	}
	if err := et.stdout.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close exiftool output: %w", err))
	}
	et.stdin = nil
	return errors.Join(errs...)
}

type exiftoolRecord map[string]interface{}

func (r exiftoolRecord) get(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (et *ExifTool) read(path string) (exiftoolRecord, error) {
	et.lock.Lock()
	defer et.lock.Unlock()

	if et.stdin == nil {
		return nil, ErrExifToolClosed
	}
	for _, arg := range exiftoolReadArgs {
		if _, err := fmt.Fprintln(et.stdin, arg); err != nil {
			return nil, err
		}
	}
	fmt.Fprintln(et.stdin, path)
	fmt.Fprintln(et.stdin, "-execute")

	if !et.scanner.Scan() {
		if err := et.scanner.Err(); err != nil {
			return nil, fmt.Errorf("read exiftool output: %w", err)
		}
		return nil, fmt.Errorf("read exiftool output: %w", io.ErrUnexpectedEOF)
	}
	return parseExifToolJSON(et.scanner.Bytes())
}

func parseExifToolJSON(out []byte) (exiftoolRecord, error) {
	var records []exiftoolRecord
	if err := json.Unmarshal(bytes.TrimSpace(out), &records); err != nil {
		return nil, fmt.Errorf("parse exiftool output %q: %w", out, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse exiftool output: empty result")
	}
	return records[0], nil
}

func (et *ExifTool) DateTimeOriginal(path string) (string, error) {
	rec, err := et.read(path)
	if err != nil {
		return "", err
	}
	v := rec.get("DateTimeOriginal")
	if v == "" || v == "0000:00:00 00:00:00" {
		return "", fmt.Errorf("%s: no DateTimeOriginal", path)
	}
	return v, nil
}

func (et *ExifTool) Details(path string) (Details, error) {
	rec, err := et.read(path)
	if err != nil {
		return Details{}, err
	}
	d := Details{Make: rec.get("Make"), Model: rec.get("Model")}
	if pos := rec.get("GPSPosition"); pos != "" {
		if gps, err := ParseGPSPosition(pos); err == nil {
			d.GPS = gps
		}
	}
	return d, nil
}
