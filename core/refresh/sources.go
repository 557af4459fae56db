package refresh

import "time"

// ActivityKind is the kind of user interaction that resets the idle timer.
type ActivityKind int

const (
	ActivityPointer ActivityKind = iota
	ActivityKey
	ActivityScroll
	ActivityTouch
	ActivityFocus
	ActivityInput
	ActivityChange
)

func (k ActivityKind) String() string {
	switch k {
	case ActivityPointer:
		return "pointer"
	case ActivityKey:
		return "key"
	case ActivityScroll:
		return "scroll"
	case ActivityTouch:
		return "touch"
	case ActivityFocus:
		return "focus"
	case ActivityInput:
		return "input"
	case ActivityChange:
		return "change"
	}
	return "unknown"
}

// Activity is one user interaction. Key and Ctrl are only set for ActivityKey.
type Activity struct {
	Kind ActivityKind
	Key  string
	Ctrl bool
}

// isForceRefresh reports whether a is the manual refresh shortcut (Ctrl+R).
func (a Activity) isForceRefresh() bool {
	return a.Kind == ActivityKey && a.Ctrl && (a.Key == "r" || a.Key == "R")
}

// Event sources. Subscribe functions return a func that cancels the subscription.
// Handlers may be called from any goroutine; the Manager moves them onto its loop.
type (
	ActivitySource interface {
		OnActivity(handler func(Activity)) (cancel func())
	}

	VisibilitySource interface {
		OnVisibility(handler func(visible bool)) (cancel func())
	}

	NetworkSource interface {
		OnNetwork(handler func(online bool)) (cancel func())
	}
)

// Page is the UI the Manager drives.
type Page interface {
	ShowCountdown(deadline time.Time)
	HideCountdown()
	ShowNotification(msg string)
	HideNotification()
	ShowNetworkStatus(online bool)
	ShowLoadingOverlay()
	// Reload tears the page down and loads it again.
	Reload()
}

// Forms gives access to the page's forms, in document order.
type Forms interface {
	// FormValues returns the named fields of every form.
	FormValues() []map[string]string
	// SetField sets a field value. It reports false when the form or the field does not exist.
	SetField(form int, name, value string) bool
}
