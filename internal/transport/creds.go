package transport

import (
	"fmt"
	"net"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/gridbox/provider/internal/item"
)

// peerCredentials resolves uc's peer (uid, pid) via SO_PEERCRED and, if
// available, the AppArmor security label of that pid. Per spec.md section
// 4.3, an absent label (no LSM in effect, or an "unconfined" process) is
// not an error — it is simply an empty string.
func peerCredentials(uc *net.UnixConn) (item.PeerInfo, error) {
	sysconn, err := uc.SyscallConn()
	if err != nil {
		return item.PeerInfo{}, fmt.Errorf("transport: obtaining raw conn: %w", err)
	}

	var ucred *unix.Ucred
	var credErr error
	if err := sysconn.Control(func(fd uintptr) {
		ucred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	}); err != nil {
		return item.PeerInfo{}, fmt.Errorf("transport: controlling raw conn: %w", err)
	}
	if credErr != nil {
		return item.PeerInfo{}, fmt.Errorf("transport: SO_PEERCRED: %w", credErr)
	}

	label, err := appArmorLabel(ucred.Pid)
	if err != nil {
		label = ""
	}
	return item.PeerInfo{UID: ucred.Uid, PID: ucred.Pid, Label: label}, nil
}

// appArmorLabel reads the AppArmor confinement label of pid from procfs.
// "unconfined" is normalized to empty, matching spec.md's "empty means no
// security context" convention.
func appArmorLabel(pid int32) (string, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/attr/current", pid))
	if err != nil {
		return "", err
	}
	label := strings.TrimRight(string(data), "\x00\n")
	if label == "unconfined" || label == "" {
		return "", nil
	}
	return label, nil
}
