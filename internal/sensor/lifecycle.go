package sensor

import (
	"context"

	"audittrail/pkg/platform/audit"
	"audittrail/pkg/platform/audit/diff"
)

// Entity is a host object whose header attributes a sensor records.
type Entity interface {
	Attribute(name string) any
}

// AttributeObject projects names of e into a diff object, in names order.
func AttributeObject(e Entity, names []string) diff.Object {
	obj := make(diff.Object, 0, len(names))
	for _, n := range names {
		obj = append(obj, diff.Field{Name: n, Value: e.Attribute(n)})
	}
	return obj
}

// RequestsAny reports whether request's action is one of actions.
func RequestsAny(request map[string]any, actions []string) bool {
	for _, action := range actions {
		if MatchHostEvent(map[string]any{"action": action}, request, LogicAnd) {
			return true
		}
	}
	return false
}

// Update is one entity after an upgrader run, with the snapshot taken
// before it when there is one.
type Update struct {
	Sensor     audit.SensorID
	ObjectType audit.ObjectType
	ObjectID   string
	Prior      Entity
	Current    Entity
	Attributes []string
	Success    bool
}

// CommitUpdate records the outcome, the attribute diff and the entity name,
// which is always present so the record names what was updated.
func (b *Base) CommitUpdate(ctx context.Context, u Update) bool {
	var (
		prior     diff.Object
		priorName any
	)
	if u.Prior != nil {
		prior = AttributeObject(u.Prior, u.Attributes)
		priorName = u.Prior.Attribute("Name")
	} else {
		b.Degraded(ctx, u.Sensor, "no snapshot for "+u.ObjectID, nil)
	}

	var changes audit.ChangeList
	changes.ForcedInfo("OP_SUCCESS", Flag(u.Success), nil)
	changes.Append(b.diff.Attributes(prior, AttributeObject(u.Current, u.Attributes), u.Attributes)...)
	changes.ForcedInfo("Name", u.Current.Attribute("Name"), priorName)

	return b.Commit(ctx, u.Sensor, b.Defaults(ctx, 0, u.ObjectType, u.ObjectID), changes)
}

// RememberDeletion keeps infos for key until CommitDeletion, since the
// entity can no longer be read once the host has deleted it.
func (b *Base) RememberDeletion(key string, infos audit.ChangeList) {
	b.deletions.Put(infos, key)
	b.Arm()
}

// CommitDeletion records the remembered description of key with the delete
// result and forgets key.
func (b *Base) CommitDeletion(ctx context.Context, id audit.SensorID, objectType audit.ObjectType, key string, deleted bool) bool {
	cached, ok := b.deletions.Get(key)
	if !ok {
		b.Degraded(ctx, id, "no pre-delete description for "+key, nil)
	}
	changes := append(audit.ChangeList(nil), cached...)
	changes.ForcedInfo("DELETION_RESULT", Flag(deleted), nil)

	stored := b.Commit(ctx, id, b.Defaults(ctx, 0, objectType, key), changes)
	b.deletions.Forget(key)
	return stored
}
