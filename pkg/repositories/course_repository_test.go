//go:build integration

package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/studysphere/pkg/models"
	"github.com/ekaya-inc/studysphere/pkg/testhelpers"
)

func TestCourseAndMaterialRepositories(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	ctx := testDB.ScopedContext(t)
	owner := testDB.CreateTestUser(t)
	other := testDB.CreateTestUser(t)
	courses := NewCourseRepository()
	materials := NewMaterialRepository()

	course := &models.Course{OwnerID: owner, Name: "Biology 101"}
	require.NoError(t, courses.Create(ctx, course))

	list, err := courses.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Biology 101", list[0].Name)

	for _, name := range []string{"syllabus.pdf", "week1.pdf"} {
		m := &models.Material{OwnerID: owner, CourseID: course.ID, FileName: name, URL: "s3://bucket/" + name, TextContent: name}
		require.NoError(t, materials.Create(ctx, m))
	}

	got, err := materials.ListByCourse(ctx, owner, course.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "syllabus.pdf", got[0].FileName, "materials returned in insertion order")

	// Owner and course must both match.
	none, err := materials.ListByCourse(ctx, other, course.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
