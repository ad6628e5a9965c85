package impl

import (
	"context"
	"crypto/rand"
	"crypto/sha1"
	"errors"
	"math/big"
	"strconv"
	"strings"
	"time"

	"disbroad/internal/domain"
	"disbroad/internal/dto"
	"disbroad/internal/service"
	"disbroad/internal/store"

	"github.com/google/uuid"
)

// maxTagAttempts bounds the collision retry loop; hitting it means the
// username is saturated and registration fails with ErrTagExhausted.
const maxTagAttempts = 10

type AccountServiceImpl struct {
	Store           dataStore
	PasswordService service.PasswordService
	Policy          PasswordPolicy
}

func NewAccountServiceImpl(st *store.Store, passwordService service.PasswordService, policy PasswordPolicy) *AccountServiceImpl {
	return &AccountServiceImpl{
		Store:           gormStoreAdapter{store: st},
		PasswordService: passwordService,
		Policy:          policy,
	}
}

type dataStore interface {
	WithTx(ctx context.Context, fn func(tx storeTx) error) error
	Users() userStore
	DeleteUserData(ctx context.Context, userID uuid.UUID) (map[string]int64, error)
}

type storeTx interface {
	Users() userStore
	Credentials() credentialStore
	Verifications() verificationStore
}

type userStore interface {
	Create(ctx context.Context, usr *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	TagTaken(ctx context.Context, username string, tag int) (bool, error)
	List(ctx context.Context, page, pageSize int) ([]*domain.User, error)
	UpdateColumns(ctx context.Context, id uuid.UUID, cols map[string]any) error
	SetVerified(ctx context.Context, id uuid.UUID) error
	SetBanned(ctx context.Context, id uuid.UUID, banned bool) error
	SetPresence(ctx context.Context, id uuid.UUID, online bool, at time.Time) error
}

type credentialStore interface {
	Replace(ctx context.Context, c *domain.PasswordCredential) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.PasswordCredential, error)
}

type verificationStore interface {
	GetByCode(ctx context.Context, code string) (*domain.VerificationCode, error)
	MarkConsumed(ctx context.Context, id uuid.UUID) error
}

type gormStoreAdapter struct {
	store *store.Store
}

func (g gormStoreAdapter) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	if g.store == nil {
		return errors.New("nil store")
	}
	return g.store.WithTx(ctx, func(tx *store.Store) error {
		return fn(gormTxAdapter{tx: tx})
	})
}

func (g gormStoreAdapter) Users() userStore { return g.store.Users() }

func (g gormStoreAdapter) DeleteUserData(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	return g.store.DeleteUserData(ctx, userID)
}

type gormTxAdapter struct {
	tx *store.Store
}

func (g gormTxAdapter) Users() userStore                 { return g.tx.Users() }
func (g gormTxAdapter) Credentials() credentialStore     { return g.tx.Credentials() }
func (g gormTxAdapter) Verifications() verificationStore { return g.tx.Verifications() }

func (a *AccountServiceImpl) Register(ctx context.Context, r dto.RegisterRequest) (*domain.User, error) {
	email := strings.TrimSpace(r.Email)
	username := strings.TrimSpace(r.Username)
	if email == "" || username == "" {
		return nil, ErrEmptyCredential
	}

	// Policy runs before hashing so rejected passwords never reach argon2.
	if violations := a.Policy.Validate(r.Password); len(violations) > 0 {
		return nil, &domain.PolicyError{Violations: violations}
	}

	var out *domain.User

	err := a.Store.WithTx(ctx, func(tx storeTx) error {
		exists, err := tx.Users().EmailExists(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrEmailExists
		}

		tag, err := deriveTag(ctx, tx.Users(), email, username)
		if err != nil {
			return err
		}

		hash, salt, paramsJSON, algo, ver, err := a.PasswordService.Hash(r.Password)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		u := &domain.User{
			ID:         uuid.New(),
			Email:      email,
			Username:   username,
			Tag:        tag,
			StatusType: domain.StatusOffline,
			LastOnline: now,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := tx.Users().Create(ctx, u); err != nil {
			// A racing registration can slip past the EmailExists pre-check;
			// the unique index reports it here. The violation has already
			// aborted the transaction, so there is no in-tx retry: the loser
			// gets the same answer as if the pre-check had caught it.
			if errors.Is(err, store.ErrDuplicateKey) {
				return domain.ErrEmailExists
			}
			return err
		}

		cred := &domain.PasswordCredential{
			ID:          uuid.New(),
			UserID:      u.ID,
			Algo:        algo,
			Hash:        hash,
			Salt:        salt,
			ParamsJSON:  paramsJSON,
			PasswordVer: ver,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Credentials().Replace(ctx, cred); err != nil {
			return err
		}

		out = u
		return nil
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

// deriveTag computes the 6-digit discriminator: the leading decimal digits of
// SHA-1(email+username), salted with 16 fresh random bytes on each collision.
func deriveTag(ctx context.Context, users userStore, email, username string) (int, error) {
	var extra []byte
	for attempt := 0; attempt < maxTagAttempts; attempt++ {
		tag := tagFor(email, username, extra)
		taken, err := users.TagTaken(ctx, username, tag)
		if err != nil {
			return 0, err
		}
		if !taken {
			return tag, nil
		}
		extra = make([]byte, 16)
		if _, err := rand.Read(extra); err != nil {
			return 0, err
		}
	}
	return 0, domain.ErrTagExhausted
}

func tagFor(email, username string, extra []byte) int {
	input := append([]byte(email+username), extra...)
	sum := sha1.Sum(input)
	digits := new(big.Int).SetBytes(sum[:]).String()
	tag, _ := strconv.Atoi(digits[:6])
	return tag
}

func (a *AccountServiceImpl) GetByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return translateUser(a.Store.Users().GetByID(ctx, id))
}

func (a *AccountServiceImpl) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return translateUser(a.Store.Users().GetByEmail(ctx, email))
}

func (a *AccountServiceImpl) List(ctx context.Context, page, pageSize int) ([]*domain.User, error) {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 100
	}
	return a.Store.Users().List(ctx, page, pageSize)
}

func (a *AccountServiceImpl) Update(ctx context.Context, id domain.UserID, patch dto.UpdateUserRequest) (*domain.User, error) {
	var out *domain.User

	err := a.Store.WithTx(ctx, func(tx storeTx) error {
		u, err := translateUser(tx.Users().GetByID(ctx, id))
		if err != nil {
			return err
		}

		cols := map[string]any{}
		if patch.Username != nil {
			username := strings.TrimSpace(*patch.Username)
			if username == "" {
				return ErrEmptyCredential
			}
			if username != u.Username {
				// The tag belongs to the (username, tag) pair, so a rename
				// re-derives it against the new namespace.
				tag, err := deriveTag(ctx, tx.Users(), u.Email, username)
				if err != nil {
					return err
				}
				cols["username"] = username
				cols["tag"] = tag
			}
		}
		if patch.Bio != nil {
			cols["bio"] = *patch.Bio
		}
		if patch.Icon != nil {
			icon, err := uuid.Parse(*patch.Icon)
			if err != nil {
				return ErrInvalidIcon
			}
			cols["icon"] = icon
		}
		if patch.StatusType != nil {
			st := domain.StatusType(*patch.StatusType)
			if !st.Valid() {
				return ErrInvalidStatus
			}
			cols["status_type"] = st
		}
		if patch.StatusMessage != nil {
			cols["status_message"] = *patch.StatusMessage
		}

		if len(cols) > 0 {
			cols["updated_at"] = time.Now().UTC()
			if err := tx.Users().UpdateColumns(ctx, id, cols); err != nil {
				return err
			}
		}

		out, err = translateUser(tx.Users().GetByID(ctx, id))
		return err
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (a *AccountServiceImpl) Delete(ctx context.Context, id domain.UserID) (map[string]int64, error) {
	deleted, err := a.Store.DeleteUserData(ctx, id)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	return deleted, err
}

func (a *AccountServiceImpl) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, ErrEmptyCredential
	}

	var out *domain.User

	err := a.Store.WithTx(ctx, func(tx storeTx) error {
		user, err := translateUser(tx.Users().GetByEmail(ctx, email))
		if err != nil {
			return err
		}
		if user.IsBanned {
			return domain.ErrUserBanned
		}

		cred, err := tx.Credentials().GetByUserID(ctx, user.ID)
		if err != nil {
			// A user without a credential row fails the same way as a wrong
			// password; which part failed is not leaked.
			return domain.ErrInvalidCredentials
		}

		rehashNeeded, ok := a.PasswordService.Verify(password, cred)
		if !ok {
			return domain.ErrInvalidCredentials
		}

		if rehashNeeded {
			newHash, newSalt, newParamsJSON, algo, ver, err := a.PasswordService.Hash(password)
			if err != nil {
				return err
			}
			cred.Algo = algo
			cred.Hash = newHash
			cred.Salt = newSalt
			cred.ParamsJSON = newParamsJSON
			cred.PasswordVer = ver
			if err := tx.Credentials().Replace(ctx, cred); err != nil {
				return err
			}
		}

		out = user
		return nil
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetPassword replaces the user's credential wholesale. The policy check and
// hash run up front; the delete-and-insert happens inside one transaction so
// a failure leaves the old password usable.
func (a *AccountServiceImpl) SetPassword(ctx context.Context, id domain.UserID, password string) error {
	if violations := a.Policy.Validate(password); len(violations) > 0 {
		return &domain.PolicyError{Violations: violations}
	}

	hash, salt, paramsJSON, algo, ver, err := a.PasswordService.Hash(password)
	if err != nil {
		return err
	}

	return a.Store.WithTx(ctx, func(tx storeTx) error {
		user, err := translateUser(tx.Users().GetByID(ctx, uuid.UUID(id)))
		if err != nil {
			return err
		}
		return tx.Credentials().Replace(ctx, &domain.PasswordCredential{
			UserID:      user.ID,
			Algo:        algo,
			Hash:        hash,
			Salt:        salt,
			ParamsJSON:  paramsJSON,
			PasswordVer: ver,
		})
	})
}

func (a *AccountServiceImpl) VerifyEmail(ctx context.Context, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.ErrCodeNotFound
	}

	return a.Store.WithTx(ctx, func(tx storeTx) error {
		vc, err := tx.Verifications().GetByCode(ctx, code)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return domain.ErrCodeNotFound
			}
			return err
		}
		if vc.Consumed {
			return domain.ErrCodeNotFound
		}
		if time.Now().UTC().After(vc.ExpiresAt) {
			return domain.ErrCodeExpired
		}
		if err := tx.Verifications().MarkConsumed(ctx, vc.ID); err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return domain.ErrCodeNotFound
			}
			return err
		}
		return tx.Users().SetVerified(ctx, vc.UserID)
	})
}

func (a *AccountServiceImpl) SetPresence(ctx context.Context, id domain.UserID, online bool) error {
	err := a.Store.Users().SetPresence(ctx, id, online, time.Now().UTC())
	if errors.Is(err, store.ErrRecordNotFound) {
		return domain.ErrUserNotFound
	}
	return err
}

func (a *AccountServiceImpl) SetBan(ctx context.Context, id domain.UserID, banned bool) error {
	err := a.Store.Users().SetBanned(ctx, id, banned)
	if errors.Is(err, store.ErrRecordNotFound) {
		return domain.ErrUserNotFound
	}
	return err
}

func translateUser(u *domain.User, err error) (*domain.User, error) {
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	return u, err
}
