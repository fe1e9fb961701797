package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/trezcool/maendeleo/apps/api/echo"
	"github.com/trezcool/maendeleo/core"
	"github.com/trezcool/maendeleo/core/progress"
	"github.com/trezcool/maendeleo/core/user"
	emailsvc "github.com/trezcool/maendeleo/services/email"
	inmemdb "github.com/trezcool/maendeleo/storage/database/inmem"
)

var (
	db       *inmemdb.DB
	app      Server
	usrRepo  user.Repository
	itemRepo progress.Repository

	errMissingToken = errEnvelope{Status: "error", Message: "missing or malformed jwt"}
	errForbidden    = errEnvelope{Status: "error", Message: "permission denied"}
	errNotFound     = errEnvelope{Status: "error", Message: "not found"}
)

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestMain(m *testing.M) {
	// set up DB & repos
	db = inmemdb.NewDB()
	usrRepo = inmemdb.NewUserRepository(db)
	itemRepo = inmemdb.NewItemRepository(db)

	// set up services
	logger := nopLogger{}
	mailSvc := emailsvc.NewConsoleServiceMock(core.Conf)
	usrSvc := user.NewService(usrRepo, core.Conf)
	progSvc := progress.NewService(itemRepo, usrRepo, mailSvc, logger, core.Conf)

	// set up validation
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	progress.InitValidators(validate, translator)

	// set up server
	app = NewServer(
		"", /* addr */
		ServerDeps{
			Logger:         logger,
			UserSvc:        usrSvc,
			ProgressSvc:    progSvc,
			Validate:       validate,
			Translator:     translator,
			DisableReqLogs: true,
		},
	)

	os.Exit(m.Run())
}

type errEnvelope struct {
	Status  string      `json:"status"`
	Message interface{} `json:"message"`
}

type dataEnvelope struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func resetDB(t *testing.T) {
	t.Helper()
	db.Reset()
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func createUser(t *testing.T, name, uname, email, pwd string, roles []string, isActive bool) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		IsActive:  &isActive,
		Roles:     roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("SetPassword(): %v", err)
		}
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

func createItem(t *testing.T, studentID, parentID string, ancestors []string, itemType, status string, createdAt time.Time) progress.Item {
	t.Helper()
	if ancestors == nil {
		ancestors = []string{}
	}
	it, err := itemRepo.CreateItem(context.Background(), progress.Item{
		StudentID: studentID,
		Name:      itemType + " " + createdAt.String(),
		ItemType:  itemType,
		Status:    status,
		ParentID:  parentID,
		Ancestors: ancestors,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("CreateItem(): %v", err)
	}
	return it
}

func getItem(t *testing.T, id string) progress.Item {
	t.Helper()
	it, err := itemRepo.GetItemByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetItemByID(%s): %v", id, err)
	}
	return it
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

// marchallData wraps obj in the success envelope.
func marchallData(t *testing.T, obj interface{}) []byte {
	t.Helper()
	return marchallObj(t, dataEnvelope{Status: "success", Data: obj})
}

func marchallFieldErrs(t *testing.T, fldErrs map[string]string) []byte {
	t.Helper()
	return marchallObj(t, errEnvelope{Status: "error", Message: fldErrs})
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
