package edge

import (
	"github.com/godbus/dbus/v5"
)

// Notifier emits a best-effort desktop notification. Failure is never
// fatal to the pipeline (spec §6.2).
type Notifier interface {
	Notify(summary, body string) error
}

const (
	notificationsService   = "org.freedesktop.Notifications"
	notificationsPath      = "/org/freedesktop/Notifications"
	notificationsInterface = "org.freedesktop.Notifications"
)

// DBusNotifier sends desktop notifications over the session bus,
// grounded on the teacher's pkg/profile/security/keychain_linux.go
// D-Bus session-bus usage.
type DBusNotifier struct {
	AppName string
}

// NewDBusNotifier returns a DBusNotifier identifying itself as appName.
func NewDBusNotifier(appName string) *DBusNotifier {
	return &DBusNotifier{AppName: appName}
}

// Notify opens a session bus connection, sends one Notify call, and
// closes the connection. A connection or call failure is returned but
// should be logged and swallowed by the caller, never propagated as a
// pipeline failure.
func (n *DBusNotifier) Notify(summary, body string) error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return err
	}
	defer conn.Close()

	obj := conn.Object(notificationsService, dbus.ObjectPath(notificationsPath))
	call := obj.Call(notificationsInterface+".Notify", 0,
		n.AppName, uint32(0), "", summary, body, []string{}, map[string]dbus.Variant{}, int32(5000))
	return call.Err
}

// NoopNotifier discards notifications. internal/cli always wires
// DBusNotifier; NoopNotifier is not selected by any configuration key.
type NoopNotifier struct{}

func (NoopNotifier) Notify(string, string) error { return nil }
