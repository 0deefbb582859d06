package platform

import (
	"bufio"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/convoy-hq/convoy-prereqs/internal/logger"
)

// Family is the coarse OS classification by package-manager lineage.
type Family string

const (
	FamilyFedora  Family = "fedora"
	FamilyDebian  Family = "debian"
	FamilyUnknown Family = "unknown"
)

// DetectFamily classifies the host by its release marker files under root
// (normally "/"). A RedHat-family release file wins over a Debian version
// file; a host with neither marker is Unknown. Detection never fails; the
// caller decides whether Unknown is fatal.
func DetectFamily(root string) Family {
	if fileExists(filepath.Join(root, "etc/redhat-release")) {
		return FamilyFedora
	}
	if fileExists(filepath.Join(root, "etc/debian_version")) {
		return FamilyDebian
	}
	return FamilyUnknown
}

// OSRelease holds the fields of /etc/os-release this tool branches on.
type OSRelease struct {
	ID              string // e.g. "ubuntu", "amzn", "rocky"
	VersionCodename string // e.g. "jammy"; empty on RPM distros
}

// ReadOSRelease parses etc/os-release under root. A missing or malformed file
// yields a zero value rather than an error; the fields are only used to pick
// vendor repository variants.
func ReadOSRelease(root string) OSRelease {
	var rel OSRelease
	f, err := os.Open(filepath.Join(root, "etc/os-release"))
	if err != nil {
		logger.Debug("os-release not readable: %v\n", err)
		return rel
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"`)
		switch key {
		case "ID":
			rel.ID = value
		case "VERSION_CODENAME":
			rel.VersionCodename = value
		}
	}
	return rel
}

// geteuid is split out so the root precondition is testable.
var geteuid = os.Geteuid

// RequireRoot verifies the process runs with elevated privileges. Package
// manager and vendor repository changes all need root.
func RequireRoot() error {
	if geteuid() != 0 {
		return fmt.Errorf("this tool must be run as root (try: sudo convoy-prereqs)")
	}
	return nil
}

// User identifies the operator the tool acts on behalf of. When the process
// runs under sudo this is the invoking user, not root: global npm installs and
// credential files must end up owned by the operator.
type User struct {
	Name string
	UID  int
	GID  int
	Home string
}

// InvokingUser resolves SUDO_USER when set (and not root itself), otherwise
// the current user.
func InvokingUser() (User, error) {
	name := os.Getenv("SUDO_USER")
	if name == "" || name == "root" {
		current, err := user.Current()
		if err != nil {
			return User{}, fmt.Errorf("resolve current user: %w", err)
		}
		home, err := homedir.Dir()
		if err != nil {
			home = current.HomeDir
		}
		return userFromPasswd(current, home)
	}

	looked, err := user.Lookup(name)
	if err != nil {
		return User{}, fmt.Errorf("resolve invoking user %q: %w", name, err)
	}
	return userFromPasswd(looked, looked.HomeDir)
}

func userFromPasswd(u *user.User, home string) (User, error) {
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return User{}, fmt.Errorf("parse uid %q: %w", u.Uid, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return User{}, fmt.Errorf("parse gid %q: %w", u.Gid, err)
	}
	return User{Name: u.Username, UID: uid, GID: gid, Home: home}, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
