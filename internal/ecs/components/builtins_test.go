package components

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enginecore/internal/ecs"
)

func Test_RegisterAll_RegistersEveryBuiltinType(t *testing.T) {
	reg := ecs.NewRegistry(nil)

	err := RegisterAll(reg)

	require.NoError(t, err)
	for _, typeID := range []ecs.ComponentType{
		ecs.ComponentTransform,
		ecs.ComponentMeshRenderer,
		ecs.ComponentCamera,
		ecs.ComponentLight,
		ecs.ComponentRigidBody,
		ecs.ComponentMeshCollider,
		ecs.ComponentMaterial,
		ecs.ComponentPersistentId,
		ecs.ComponentScript,
	} {
		assert.True(t, reg.IsRegistered(typeID), "expected %s to be registered", typeID)
	}
}

func Test_RegisterAll_IsIdempotent(t *testing.T) {
	reg := ecs.NewRegistry(nil)
	require.NoError(t, RegisterAll(reg))

	err := RegisterAll(reg)

	assert.NoError(t, err)
}

func Test_Transform_DefaultsToIdentityValues(t *testing.T) {
	reg := ecs.NewRegistry(nil)
	require.NoError(t, RegisterAll(reg))

	require.NoError(t, reg.AddComponent(1, ecs.ComponentTransform, map[string]any{}))

	data, ok := reg.GetComponentData(1, ecs.ComponentTransform)
	require.True(t, ok)
	assert.Equal(t, ecs.Vector3{X: 1, Y: 1, Z: 1}, data["scale"])
}

func Test_MeshRenderer_RequiresTransform(t *testing.T) {
	reg := ecs.NewRegistry(nil)
	require.NoError(t, RegisterAll(reg))

	err := reg.AddComponent(1, ecs.ComponentMeshRenderer, nil)

	assert.Error(t, err)
}
