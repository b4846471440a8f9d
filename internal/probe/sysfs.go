package probe

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

const (
	powerSupplyDir = "/sys/class/power_supply"
	hwmonDir       = "/sys/class/hwmon"
)

// Sysfs reads battery and fan state from the Linux sysfs tree. On hosts
// without these directories every read reports "nothing present".
type Sysfs struct {
	fs afero.Fs
}

// NewSysfs reads from fs, which is the real filesystem in production and a
// MemMapFs in tests.
func NewSysfs(fs afero.Fs) *Sysfs {
	return &Sysfs{fs: fs}
}

// Battery returns the first battery's charge and whether mains power is
// connected. It returns nil, nil when there is no battery.
func (s *Sysfs) Battery() (*Battery, error) {
	supplies, err := s.listDir(powerSupplyDir)
	if err != nil {
		return nil, err
	}

	var bat *Battery
	var batStatus string
	mainsOnline := false

	for _, name := range supplies {
		dir := path.Join(powerSupplyDir, name)
		kind, _ := s.readString(path.Join(dir, "type"))
		switch kind {
		case "Mains", "USB":
			if online, err := s.readInt(path.Join(dir, "online")); err == nil && online == 1 {
				mainsOnline = true
			}
		case "Battery":
			if bat != nil {
				continue
			}
			capacity, err := s.readInt(path.Join(dir, "capacity"))
			if err != nil {
				continue
			}
			bat = &Battery{Percent: float64(clampPercent(capacity))}
			batStatus, _ = s.readString(path.Join(dir, "status"))
		}
	}

	if bat == nil {
		return nil, nil
	}
	bat.OnAC = mainsOnline || batStatus == "Charging" || batStatus == "Full"
	return bat, nil
}

// FanSpeeds returns every fan*_input reading under hwmon, ordered by
// device then fan index.
func (s *Sysfs) FanSpeeds() ([]int, error) {
	devices, err := s.listDir(hwmonDir)
	if err != nil {
		return nil, err
	}

	var speeds []int
	for _, dev := range devices {
		dir := path.Join(hwmonDir, dev)
		entries, err := s.listDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !strings.HasPrefix(e, "fan") || !strings.HasSuffix(e, "_input") {
				continue
			}
			rpm, err := s.readInt(path.Join(dir, e))
			if err != nil || rpm < 0 {
				continue
			}
			speeds = append(speeds, rpm)
		}
	}
	return speeds, nil
}

// listDir returns entry names in index order (hwmon2 before hwmon10), or
// nothing when dir does not exist.
func (s *Sysfs) listDir(dir string) ([]string, error) {
	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		names = append(names, fi.Name())
	}
	sort.Slice(names, func(i, j int) bool { return naturalLess(names[i], names[j]) })
	return names, nil
}

// naturalLess compares runs of digits by value and everything else bytewise.
func naturalLess(a, b string) bool {
	for a != "" && b != "" {
		da, db := leadingDigits(a), leadingDigits(b)
		if da > 0 && db > 0 {
			na, _ := strconv.ParseUint(a[:da], 10, 64)
			nb, _ := strconv.ParseUint(b[:db], 10, 64)
			if na != nb {
				return na < nb
			}
			a, b = a[da:], b[db:]
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func leadingDigits(s string) int {
	n := 0
	for n < len(s) && s[n] >= '0' && s[n] <= '9' {
		n++
	}
	return n
}

func (s *Sysfs) readString(p string) (string, error) {
	b, err := afero.ReadFile(s.fs, p)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (s *Sysfs) readInt(p string) (int, error) {
	v, err := s.readString(p)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(v)
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
