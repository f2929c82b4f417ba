package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

const holisticScript = "holistic_service.py"

// ErrDetectorClosed is returned by Detect after Close.
var ErrDetectorClosed = errors.New("detector is closed")

// MediaPipeDetector implements Detector with a Python MediaPipe Holistic subprocess.
//
// Wire protocol, one exchange per frame:
//
//	-> 4-byte big-endian length, JPEG bytes (BGR frame)
//	<- one JSON line {"pose": [...]|null, "left_hand": [...]|null, "right_hand": [...]|null}
//
// A zero length is a reset: the service re-creates its model and answers {"reset": true}.
type MediaPipeDetector struct {
	config     Config
	scriptPath string
	pythonPath string

	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  *bufio.Reader
	mu      sync.Mutex
	started bool
	closed  bool
}

// NewMediaPipeDetector creates a new holistic detector.
// The Python process is started lazily on first detection and lives until Close.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	scriptPath := config.ScriptPath
	if scriptPath == "" {
		scriptPath = findHolisticScript()
	}
	if scriptPath == "" {
		return nil, fmt.Errorf("%s not found", holisticScript)
	}
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, fmt.Errorf("holistic script: %w", err)
	}

	pythonPath := config.PythonPath
	if pythonPath == "" {
		pythonPath = findVenvPython()
	}
	if pythonPath == "" {
		pythonPath = "python3"
	}

	return &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
		pythonPath: pythonPath,
	}, nil
}

// Detect sends a frame to the model and returns the landmarks it found.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) (*LandmarkSet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrDetectorClosed
	}
	if frame == nil || frame.Empty() {
		return &LandmarkSet{}, nil
	}

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, fmt.Errorf("write data: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return decodeResponse(line)
}

// Reset makes the model forget the previous video. A process that has not
// started yet has no state, so nothing is sent.
func (d *MediaPipeDetector) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDetectorClosed
	}
	if !d.started {
		return nil
	}

	if _, err := d.stdin.Write(make([]byte, 4)); err != nil {
		return fmt.Errorf("write reset: %w", err)
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("read reset response: %w", err)
	}

	var resp jsonResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return fmt.Errorf("parse reset response: %w", err)
	}
	if resp.Error != "" {
		return fmt.Errorf("holistic service: %s", resp.Error)
	}
	if !resp.Reset {
		return errors.New("holistic service did not acknowledge reset")
	}
	return nil
}

// Close shuts down the Python process. Further calls to Detect fail.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	return d.shutdown()
}

func (d *MediaPipeDetector) args() []string {
	return []string{
		d.scriptPath,
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinDetectionConf, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', -1, 64),
		"--model-complexity", strconv.Itoa(d.config.ModelComplexity),
	}
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	d.cmd = exec.Command(d.pythonPath, d.args()...)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start holistic service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true

	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

func findHolisticScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", holisticScript),
		filepath.Join("..", "scripts", holisticScript),
		filepath.Join(execDir, "scripts", holisticScript),
		filepath.Join(os.Getenv("HOME"), ".signprep", "scripts", holisticScript),
	}

	return firstExisting(candidates)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".signprep/venv/bin/python"),
	}

	return firstExisting(candidates)
}

func firstExisting(candidates []string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonResponse represents the JSON structure from the Python service.
type jsonResponse struct {
	Pose      []jsonPoint `json:"pose"`
	LeftHand  []jsonPoint `json:"left_hand"`
	RightHand []jsonPoint `json:"right_hand"`
	Error     string      `json:"error,omitempty"`
	Reset     bool        `json:"reset,omitempty"`
}

type jsonPoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

func decodeResponse(line []byte) (*LandmarkSet, error) {
	var resp jsonResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("holistic service: %s", resp.Error)
	}

	set := &LandmarkSet{
		LeftHand:  toHand(resp.LeftHand, "Left"),
		RightHand: toHand(resp.RightHand, "Right"),
	}

	if len(resp.Pose) > 0 {
		set.Pose = make([]PosePoint, len(resp.Pose))
		for i, p := range resp.Pose {
			set.Pose[i] = PosePoint{
				Point3D:    Point3D{X: p.X, Y: p.Y, Z: p.Z},
				Visibility: p.Visibility,
			}
		}
	}

	return set, nil
}

func toHand(points []jsonPoint, handedness string) *HandLandmarks {
	if len(points) == 0 {
		return nil
	}

	h := &HandLandmarks{Handedness: handedness, Score: 1}
	for i := 0; i < NumLandmarks && i < len(points); i++ {
		h.Points[i] = Point3D{X: points[i].X, Y: points[i].Y, Z: points[i].Z}
	}
	return h
}
