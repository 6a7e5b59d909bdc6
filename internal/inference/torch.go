package inference

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

// TorchClassifier implements Classifier using a Python subprocess that hosts
// the trained sequence model. The process is started eagerly so a missing or
// broken model artifact is detected before the server accepts connections.
//
// Protocol: the runner prints a ready line on startup, then exchanges one JSON
// line per request over stdin/stdout:
//
//	-> {"window": [[...126 floats...], ...]}
//	<- {"probabilities": [...]} or {"error": "..."}
type TorchClassifier struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	device string
	mu     sync.Mutex
}

// TorchConfig holds configuration for the classifier subprocess.
type TorchConfig struct {
	// ModelDir is the directory containing the trained model artifact.
	ModelDir string
	// Script overrides the runner script path; discovered if empty.
	Script string
	// Python overrides the interpreter path; discovered if empty.
	Python string
}

type torchRequest struct {
	Window [][]float64 `json:"window"`
}

type torchResponse struct {
	Probabilities []float64 `json:"probabilities"`
	Error         string    `json:"error"`
}

type torchReady struct {
	Status  string `json:"status"`
	Device  string `json:"device"`
	Classes int    `json:"classes"`
}

// NewTorchClassifier starts the classifier runner and waits for its ready
// handshake. Any startup failure means the model is unavailable.
func NewTorchClassifier(config TorchConfig) (*TorchClassifier, error) {
	scriptPath := config.Script
	if scriptPath == "" {
		scriptPath = findClassifierScript()
	}
	if scriptPath == "" {
		return nil, fmt.Errorf("%w: classifier_service.py not found", ErrModelUnavailable)
	}

	pythonPath := config.Python
	if pythonPath == "" {
		pythonPath = findVenvPython()
	}
	if pythonPath == "" {
		pythonPath = "python3"
	}

	cmd := exec.Command(pythonPath, scriptPath, "--model-dir", config.ModelDir)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start classifier runner: %v", ErrModelUnavailable, err)
	}

	c := &TorchClassifier{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
	}

	// The runner loads the model before printing the ready line, so a bad
	// artifact fails the handshake rather than the first prediction.
	line, err := c.stdout.ReadString('\n')
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: read ready handshake: %v", ErrModelUnavailable, err)
	}

	var ready torchReady
	if err := json.Unmarshal([]byte(line), &ready); err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: parse ready handshake: %v", ErrModelUnavailable, err)
	}
	if ready.Status != "ready" {
		c.Close()
		return nil, fmt.Errorf("%w: runner reported status %q", ErrModelUnavailable, ready.Status)
	}

	c.device = ready.Device
	return c, nil
}

// Probabilities sends a window to the runner and returns per-class probabilities.
func (c *TorchClassifier) Probabilities(window [][]float64) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	request, err := json.Marshal(torchRequest{Window: window})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	request = append(request, '\n')

	if _, err := c.stdin.Write(request); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	line, err := c.stdout.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var response torchResponse
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("classifier runner: %s", response.Error)
	}

	return response.Probabilities, nil
}

// Device returns the compute device reported by the runner.
func (c *TorchClassifier) Device() string {
	return c.device
}

// Close shuts down the runner process.
func (c *TorchClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cmd == nil {
		return nil
	}

	if c.stdin != nil {
		c.stdin.Close()
	}

	err := c.cmd.Wait()
	c.cmd = nil
	c.stdin = nil
	c.stdout = nil

	return err
}

func findClassifierScript() string {
	// Get executable directory
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/classifier_service.py",
		"../scripts/classifier_service.py",
		filepath.Join(execDir, "scripts/classifier_service.py"),
		filepath.Join(os.Getenv("HOME"), ".mudra/scripts/classifier_service.py"),
	}

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
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".mudra/venv/bin/python"),
	}

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
