package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/trezcool/maendeleo/core/progress"
	"github.com/trezcool/maendeleo/core/user"
)

// plantChain creates Milestone -> Stage -> Task1, Task2, all Locked.
func plantChain(t *testing.T, studentID string) (m, s, t1, t2 progress.Item) {
	t.Helper()
	now := time.Now().UTC()
	m = createItem(t, studentID, "", nil, progress.TypeMilestone, progress.StatusLocked, now)
	s = createItem(t, studentID, m.ID, []string{m.ID}, progress.TypeStage, progress.StatusLocked, now.Add(time.Second))
	t1 = createItem(t, studentID, s.ID, []string{m.ID, s.ID}, progress.TypeTask, progress.StatusLocked, now.Add(2*time.Second))
	t2 = createItem(t, studentID, s.ID, []string{m.ID, s.ID}, progress.TypeTask, progress.StatusLocked, now.Add(3*time.Second))
	return m, s, t1, t2
}

func Test_progressApi_create(t *testing.T) {
	resetDB(t)

	student := createUser(t, "Hero", "hero01", "hero@test.cd", "", user.StudentRoles, true)
	faculty := createUser(t, "Prof", "prof01", "prof@test.cd", "", user.FacultyRoles, true)
	facultyToken := getToken(t, faculty)
	root := createItem(t, student.ID, "", nil, progress.TypeMilestone, progress.StatusLocked, time.Now().UTC())

	reqMsg := "this field is required"
	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Faculty required", token: getToken(t, student), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{
			name: "required fields", token: facultyToken, wantCode: http.StatusBadRequest,
			wantData: marchallFieldErrs(t, map[string]string{"student_id": reqMsg, "name": reqMsg, "item_type": reqMsg}),
		},
		{
			name: "invalid item type", token: facultyToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, progress.NewItem{StudentID: student.ID, Name: "Checkpoint", ItemType: "Quest"}),
			wantData: marchallFieldErrs(t, map[string]string{"item_type": "must be one of: Milestone, Stage, Task, Subtask"}),
		},
		{
			name: "unknown student", token: facultyToken, wantCode: http.StatusNotFound,
			body:     marchallObj(t, progress.NewItem{StudentID: "nope", Name: "Checkpoint", ItemType: progress.TypeMilestone}),
			wantData: marchallObj(t, errNotFound),
		},
		{
			name: "unknown parent", token: facultyToken, wantCode: http.StatusNotFound,
			body:     marchallObj(t, progress.NewItem{StudentID: student.ID, Name: "Checkpoint", ItemType: progress.TypeTask, ParentID: "nope"}),
			wantData: marchallObj(t, errNotFound),
		},
		{
			name: "root created", token: facultyToken, wantCode: http.StatusCreated,
			body:  marchallObj(t, progress.NewItem{StudentID: student.ID, Name: "Internship", ItemType: progress.TypeMilestone}),
			extra: []string{},
		},
		{
			name: "child created", token: facultyToken, wantCode: http.StatusCreated,
			body:  marchallObj(t, progress.NewItem{StudentID: student.ID, Name: "Find a Supervisor", ItemType: progress.TypeTask, ParentID: root.ID}),
			extra: []string{root.ID},
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/progress"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var respData struct {
					Status string        `json:"status"`
					Data   progress.Item `json:"data"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &respData); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if respData.Data.Status != progress.StatusLocked {
					t.Errorf("failed! status = %s; want %s", respData.Data.Status, progress.StatusLocked)
				}
				wantAncestors := tt.extra.([]string)
				if len(respData.Data.Ancestors) != len(wantAncestors) {
					t.Fatalf("failed! ancestors = %v; want %v", respData.Data.Ancestors, wantAncestors)
				}
				for i := range wantAncestors {
					if respData.Data.Ancestors[i] != wantAncestors[i] {
						t.Errorf("failed! ancestors[%d] = %s; want %s", i, respData.Data.Ancestors[i], wantAncestors[i])
					}
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_progressApi_listMine(t *testing.T) {
	resetDB(t)

	student := createUser(t, "Hero", "hero01", "hero@test.cd", "", user.StudentRoles, true)
	other := createUser(t, "King", "king01", "king@test.cd", "", user.StudentRoles, true)
	faculty := createUser(t, "Prof", "prof01", "prof@test.cd", "", user.FacultyRoles, true)
	m, s, t1, t2 := plantChain(t, student.ID)
	createItem(t, other.ID, "", nil, progress.TypeMilestone, progress.StatusLocked, time.Now().UTC())

	mine := []progress.Item{m, s, t1, t2}

	tests := []httpTest{
		{name: "Auth required", path: "/v1/progress/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Student required", path: "/v1/progress/me", token: getToken(t, faculty), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "Own items only", path: "/v1/progress/me", token: getToken(t, student), wantCode: http.StatusOK, wantData: marchallData(t, mine)},
		{name: "Own tree", path: "/v1/progress/me/tree", token: getToken(t, student), wantCode: http.StatusOK, wantData: marchallData(t, progress.BuildTree(mine))},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_progressApi_listForStudent(t *testing.T) {
	resetDB(t)

	student := createUser(t, "Hero", "hero01", "hero@test.cd", "", user.StudentRoles, true)
	faculty := createUser(t, "Prof", "prof01", "prof@test.cd", "", user.FacultyRoles, true)
	facultyToken := getToken(t, faculty)
	m, s, t1, t2 := plantChain(t, student.ID)
	items := []progress.Item{m, s, t1, t2}

	tests := []httpTest{
		{name: "Auth required", path: "/v1/progress/student/" + student.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Faculty required", path: "/v1/progress/student/" + student.ID, token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "Flat list", path: "/v1/progress/student/" + student.ID, token: facultyToken, wantCode: http.StatusOK, wantData: marchallData(t, items)},
		{name: "Tree", path: "/v1/progress/student/" + student.ID + "/tree", token: facultyToken, wantCode: http.StatusOK, wantData: marchallData(t, progress.BuildTree(items))},
		{name: "Unknown student yields empty list", path: "/v1/progress/student/nope", token: facultyToken, wantCode: http.StatusOK, wantData: marchallData(t, []progress.Item{})},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_progressApi_complete(t *testing.T) {
	resetDB(t)

	student := createUser(t, "Hero", "hero01", "hero@test.cd", "", user.StudentRoles, true)
	other := createUser(t, "King", "king01", "king@test.cd", "", user.StudentRoles, true)
	faculty := createUser(t, "Prof", "prof01", "prof@test.cd", "", user.FacultyRoles, true)
	studentToken := getToken(t, student)
	m, s, t1, _ := plantChain(t, student.ID)

	completed := marchallObj(t, progress.StatusUpdate{Status: progress.StatusCompleted})
	tests := []httpTest{
		{name: "Auth required", path: "/v1/progress/item/" + t1.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Student required", path: "/v1/progress/item/" + t1.ID, token: getToken(t, faculty), body: completed,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "invalid status", path: "/v1/progress/item/" + t1.ID, token: studentToken,
			body:     marchallObj(t, progress.StatusUpdate{Status: "Done"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallFieldErrs(t, map[string]string{"status": "must be one of: Locked, In Progress, Completed"}),
		},
		{
			name: "only Completed is self-reportable", path: "/v1/progress/item/" + t1.ID, token: studentToken,
			body:     marchallObj(t, progress.StatusUpdate{Status: progress.StatusLocked}),
			wantCode: http.StatusBadRequest,
			wantData: marchallFieldErrs(t, map[string]string{"status": "students may only mark items Completed"}),
		},
		{
			name: "not the owner", path: "/v1/progress/item/" + t1.ID, token: getToken(t, other), body: completed,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "milestones are not self-reportable", path: "/v1/progress/item/" + m.ID, token: studentToken, body: completed,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "unknown item", path: "/v1/progress/item/nope", token: studentToken, body: completed,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{name: "task completed", path: "/v1/progress/item/" + t1.ID, token: studentToken, body: completed, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPut

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				// one of two tasks done: ancestors move to In Progress
				if got := getItem(t, t1.ID).Status; got != progress.StatusCompleted {
					t.Errorf("failed! task status = %s; want %s", got, progress.StatusCompleted)
				}
				if got := getItem(t, s.ID).Status; got != progress.StatusInProgress {
					t.Errorf("failed! stage status = %s; want %s", got, progress.StatusInProgress)
				}
				if got := getItem(t, m.ID).Status; got != progress.StatusInProgress {
					t.Errorf("failed! milestone status = %s; want %s", got, progress.StatusInProgress)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_progressApi_override(t *testing.T) {
	resetDB(t)

	student := createUser(t, "Hero", "hero01", "hero@test.cd", "", user.StudentRoles, true)
	faculty := createUser(t, "Prof", "prof01", "prof@test.cd", "", user.FacultyRoles, true)
	facultyToken := getToken(t, faculty)
	m, s, t1, t2 := plantChain(t, student.ID)

	completed := marchallObj(t, progress.StatusUpdate{Status: progress.StatusCompleted})
	tests := []httpTest{
		{name: "Auth required", path: "/v1/progress/override/" + s.ID, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Faculty required", path: "/v1/progress/override/" + s.ID, token: getToken(t, student), body: completed,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "invalid status", path: "/v1/progress/override/" + s.ID, token: facultyToken,
			body:     marchallObj(t, progress.StatusUpdate{Status: "Done"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallFieldErrs(t, map[string]string{"status": "must be one of: Locked, In Progress, Completed"}),
		},
		{
			name: "unknown item", path: "/v1/progress/override/nope", token: facultyToken, body: completed,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{name: "stage force-completed", path: "/v1/progress/override/" + s.ID, token: facultyToken, body: completed, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPut

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				// the force cascades down to both tasks and rolls up to the milestone
				for _, id := range []string{s.ID, t1.ID, t2.ID, m.ID} {
					if got := getItem(t, id).Status; got != progress.StatusCompleted {
						t.Errorf("failed! item %s status = %s; want %s", id, got, progress.StatusCompleted)
					}
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}
