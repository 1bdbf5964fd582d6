package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sims-platform/sims-api/internal/models"
)

// Every delete flow must honor the policy its entity declares: guarded
// hard deletes remove the row once no dependents block it, soft deletes
// only flip the active flag and keep the row.
func TestDeleteFlowsHonorDeclaredPolicies(t *testing.T) {
	cases := []struct {
		entity string
		run    func(t *testing.T) (removed, deactivated bool)
	}{
		{
			entity: "student",
			run: func(t *testing.T) (bool, bool) {
				repo := &mockStudentRepo{byID: map[int64]models.StudentDetail{
					3: {Student: models.Student{ID: 3, UserID: 30}},
				}}
				svc := NewStudentService(repo, &mockStudentUsers{}, &mockHomeroomClasses{}, fakeVerifier{}, nil, nil)
				require.NoError(t, svc.Delete(context.Background(), 3))
				return len(repo.deleted) > 0, false
			},
		},
		{
			entity: "class_room",
			run: func(t *testing.T) (bool, bool) {
				repo := &mockClassRoomRepo{byID: map[int64]models.ClassRoomDetail{
					1: {ClassRoom: models.ClassRoom{ID: 1, ClassCode: "10A"}},
				}}
				svc := NewClassRoomService(repo, &mockClassStudentCounter{}, nil, nil)
				require.NoError(t, svc.Delete(context.Background(), 1))
				return len(repo.deleted) > 0, false
			},
		},
		{
			entity: "course",
			run: func(t *testing.T) (bool, bool) {
				repo := &mockCourseRepo{byID: map[int64]models.Course{2: {ID: 2}}}
				svc := NewCourseService(repo, &mockCourseAssignments{}, nil, nil)
				require.NoError(t, svc.Delete(context.Background(), 2))
				return len(repo.deleted) > 0, false
			},
		},
		{
			entity: "teacher",
			run: func(t *testing.T) (bool, bool) {
				repo := &mockTeacherRepo{byID: map[int64]models.TeacherDetail{
					40: {Teacher: models.Teacher{ID: 40, TeacherCode: "T001", UserID: 300, IsActive: true}},
				}}
				svc := NewTeacherService(repo, &mockTeacherUsers{}, fakeVerifier{}, nil, nil)
				require.NoError(t, svc.Delete(context.Background(), 40))
				return false, len(repo.deactivated) > 0
			},
		},
		{
			entity: "user",
			run: func(t *testing.T) (bool, bool) {
				repo := &mockUserRepo{users: map[int64]models.User{
					5: {ID: 5, Role: models.RoleStudent, IsActive: true},
				}}
				svc := NewUserService(repo, fakeVerifier{}, nil, nil)
				require.NoError(t, svc.Delete(context.Background(), 5))
				return false, len(repo.deactivated) > 0
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.entity, func(t *testing.T) {
			removed, deactivated := tc.run(t)
			switch models.DeletePolicyFor(tc.entity) {
			case models.GuardedHardDelete:
				assert.True(t, removed, "declared policy requires row removal")
			case models.SoftDelete:
				assert.False(t, removed, "declared policy forbids row removal")
				assert.True(t, deactivated, "soft delete must deactivate")
			}
		})
	}
}
