package service

import (
	"errors"
	"testing"

	"github.com/dailyquest/internal/db"
)

func TestTagServiceCreateAndDuplicate(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewTagService(db.DB)
	user := createTestUser(t, "alice")
	other := createTestUser(t, "bob")

	tag, err := svc.Create(user.ID, "健康", "#22c55e")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if tag.ID == 0 || tag.Name != "健康" {
		t.Fatalf("unexpected tag: %+v", tag)
	}

	if _, err := svc.Create(user.ID, "健康", "#ef4444"); !errors.Is(err, ErrTagExists) {
		t.Errorf("expected ErrTagExists for duplicate name, got %v", err)
	}

	// 同名标签在不同用户之间互不冲突
	if _, err := svc.Create(other.ID, "健康", "#ef4444"); err != nil {
		t.Errorf("expected same name to be allowed for another user, got %v", err)
	}

	if _, err := svc.Create(user.ID, "  <script>x</script>  ", ""); !errors.Is(err, ErrTagNameRequired) {
		t.Errorf("expected ErrTagNameRequired for markup-only name, got %v", err)
	}
}

func TestTagServiceUpdate(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	svc := NewTagService(db.DB)
	user := createTestUser(t, "alice")

	tag, err := svc.Create(user.ID, "工作", "#3b82f6")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Create(user.ID, "学习", "#f97316"); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	updated, err := svc.Update(tag.ID, user.ID, "职场", "#0ea5e9")
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Name != "职场" || updated.Color != "#0ea5e9" {
		t.Errorf("unexpected update result: %+v", updated)
	}

	// 重命名撞到另一个已有标签
	if _, err := svc.Update(tag.ID, user.ID, "学习", ""); !errors.Is(err, ErrTagExists) {
		t.Errorf("expected ErrTagExists on rename collision, got %v", err)
	}

	if _, err := svc.Update(tag.ID+100, user.ID, "随便", ""); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("expected ErrTagNotFound for unknown tag, got %v", err)
	}
}

func TestTagServiceDeleteClearsAssociations(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	tags := NewTagService(db.DB)
	tasks := NewTaskService(db.DB)
	user := createTestUser(t, "alice")

	tag, err := tags.Create(user.ID, "健康", "#22c55e")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	habit := createTestHabit(t, user.ID, db.DifficultyEasy)
	if err := tasks.AddTag(habit, tag); err != nil {
		t.Fatalf("AddTag returned error: %v", err)
	}

	if err := tags.Delete(tag.ID, user.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if _, err := tags.Get(tag.ID, user.ID); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("expected tag gone after delete, got %v", err)
	}

	var linkCount int64
	db.DB.Table("task_tags").Where("tag_id = ?", tag.ID).Count(&linkCount)
	if linkCount != 0 {
		t.Errorf("expected task_tags rows removed, got %d", linkCount)
	}

	// 不能删除他人的标签
	foreign := createTestUser(t, "bob")
	tag2, err := tags.Create(user.ID, "私密", "")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := tags.Delete(tag2.ID, foreign.ID); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("expected ErrTagNotFound for foreign delete, got %v", err)
	}
}

func TestTaskListByTag(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	tags := NewTagService(db.DB)
	tasks := NewTaskService(db.DB)
	user := createTestUser(t, "alice")

	tag, err := tags.Create(user.ID, "健康", "")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	tagged := createTestHabit(t, user.ID, db.DifficultyEasy)
	createTestTodo(t, user.ID, db.DifficultyEasy)

	if err := tasks.AddTag(tagged, tag); err != nil {
		t.Fatalf("AddTag returned error: %v", err)
	}

	got, err := tasks.ListByTag(user.ID, tag.ID)
	if err != nil {
		t.Fatalf("ListByTag returned error: %v", err)
	}
	if len(got) != 1 || got[0].ID != tagged.ID {
		t.Fatalf("expected only the tagged task, got %+v", got)
	}

	if err := tasks.RemoveTag(tagged, tag); err != nil {
		t.Fatalf("RemoveTag returned error: %v", err)
	}
	got, err = tasks.ListByTag(user.ID, tag.ID)
	if err != nil {
		t.Fatalf("ListByTag returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no tasks after RemoveTag, got %d", len(got))
	}
}
