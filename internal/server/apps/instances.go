package apps

import "fmt"

// AppInstances is an immutable collection of application instances indexed by ID.
type AppInstances struct {
	apps map[string]App
}

// NewAppInstances creates a new AppInstances from a slice of App instances
func NewAppInstances(apps []App) (*AppInstances, error) {
	appMap := make(map[string]App, len(apps))

	for _, app := range apps {
		id := app.String()
		if _, exists := appMap[id]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAppID, id)
		}
		appMap[id] = app
	}

	return &AppInstances{apps: appMap}, nil
}

// GetApp retrieves an application instance by ID
func (c *AppInstances) GetApp(id string) (App, bool) {
	app, exists := c.apps[id]
	return app, exists
}

// Len returns the number of registered applications
func (c *AppInstances) Len() int {
	if c == nil {
		return 0
	}
	return len(c.apps)
}

// String returns a string representation of the app instances
func (c *AppInstances) String() string {
	if c == nil || len(c.apps) == 0 {
		return "AppInstances{empty}"
	}

	ids := make([]string, 0, len(c.apps))
	for id := range c.apps {
		ids = append(ids, id)
	}

	return fmt.Sprintf("AppInstances{apps: %v}", ids)
}
