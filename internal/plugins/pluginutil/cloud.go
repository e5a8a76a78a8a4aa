package pluginutil

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/ovhkit/internal/ovhapi"
	"github.com/alexisbeaulieu97/ovhkit/internal/reconcile"
)

// CloudRef designates a resource of a public cloud project either by its id
// or by its name and region.
type CloudRef struct {
	ID     string
	Name   string
	Region string
}

// CloudResource is a listed public cloud resource.
type CloudResource struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"`
	Status string `json:"status"`
}

// CloudNotFoundError reports that no resource carries the requested name.
type CloudNotFoundError struct {
	Key string
}

func (e *CloudNotFoundError) Error() string {
	return e.Key + " not found"
}

// FindCloudResource returns the single resource of collection ("instance",
// "volume") in project named name in region. found is false when none
// matches. Several matches are reported as ambiguous.
func FindCloudResource(ctx context.Context, client *ovhapi.Client, project, collection, name, region string) (CloudResource, bool, error) {
	var listed []CloudResource
	if err := client.Get(ctx, ovhapi.Path("/cloud/project/%s/%s", project, collection), ovhapi.Params{"region": region}, &listed); err != nil {
		return CloudResource{}, false, err
	}

	var matches []CloudResource
	for _, r := range listed {
		if r.Name == name && r.Region == region {
			matches = append(matches, r)
		}
	}
	if err := reconcile.RequireUnique(fmt.Sprintf("%s %s in %s", collection, name, region), matches); err != nil {
		return CloudResource{}, false, err
	}
	if len(matches) == 0 {
		return CloudResource{}, false, nil
	}
	return matches[0], true, nil
}

// ResolveCloudID returns the id ref designates. A set ID is used as is,
// without any call.
func ResolveCloudID(ctx context.Context, client *ovhapi.Client, project, collection string, ref CloudRef) (string, error) {
	if ref.ID != "" {
		return ref.ID, nil
	}
	found, ok, err := FindCloudResource(ctx, client, project, collection, ref.Name, ref.Region)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &CloudNotFoundError{Key: fmt.Sprintf("%s %s in %s", collection, ref.Name, ref.Region)}
	}
	return found.ID, nil
}

// Label names ref in messages: its name when set, its id otherwise.
func (r CloudRef) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}
