package user

import (
	"context"
	"errors"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/portal-admin/internal"
	userDatamodel "github.com/frahmantamala/portal-admin/internal/core/datamodel/user"
	"github.com/frahmantamala/portal-admin/internal/core/events"
	coreUser "github.com/frahmantamala/portal-admin/internal/core/user"
	"github.com/frahmantamala/portal-admin/internal/module"
	"github.com/frahmantamala/portal-admin/internal/permission"
)

var _ = Describe("Service", func() {
	var (
		ctx         context.Context
		repo        *mockUserRepository
		permissions *mockPermissionManager
		publisher   *recordingPublisher
		service     *Service
		admin       *coreUser.Principal
		editor      *coreUser.Principal
	)

	BeforeEach(func() {
		ctx = context.Background()
		repo = newMockUserRepository(
			&userDatamodel.User{ID: 1, Email: "admin@portal.local", Name: "Admin", Role: "admin", IsActive: true},
			&userDatamodel.User{ID: 2, Email: "editor@portal.local", Name: "Editor", Role: "editor", IsActive: true},
			&userDatamodel.User{ID: 3, Email: "usuario@portal.local", Name: "Usuario", Role: "usuario", IsActive: true},
		)
		permissions = &mockPermissionManager{}
		publisher = &recordingPublisher{}
		service = NewService(repo, permissions, publisher, bcrypt.MinCost, slog.New(slog.NewTextHandler(GinkgoWriter, nil)))

		admin = &coreUser.Principal{ID: 1, Role: coreUser.RoleAdmin, Active: true}
		editor = &coreUser.Principal{ID: 2, Role: coreUser.RoleEditor, Active: true}
	})

	validCreate := func() CreateUserRequest {
		return CreateUserRequest{
			Email:    "  Nueva@Portal.Local ",
			Name:     " Nueva Editora ",
			Password: "una-clave-segura",
			Role:     "Editor",
		}
	}

	Describe("GetByID", func() {
		It("returns the user", func() {
			u, err := service.GetByID(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Role).To(Equal(coreUser.RoleEditor))
			Expect(u.Principal().Active).To(BeTrue())
		})

		It("reports unknown users", func() {
			_, err := service.GetByID(ctx, 55)
			Expect(internal.HasCode(err, internal.ErrCodeUserNotFound)).To(BeTrue())
		})

		It("reports store failures as unavailable", func() {
			repo.err = errors.New("connection reset")
			_, err := service.GetByID(ctx, 2)
			Expect(internal.HasCode(err, internal.ErrCodeStoreUnavailable)).To(BeTrue())
		})
	})

	Describe("Create", func() {
		It("normalizes input and hashes the password", func() {
			created, err := service.Create(ctx, admin, validCreate())
			Expect(err).NotTo(HaveOccurred())
			Expect(created.User.Email).To(Equal("nueva@portal.local"))
			Expect(created.User.Name).To(Equal("Nueva Editora"))
			Expect(created.User.Role).To(Equal(coreUser.RoleEditor))
			Expect(created.User.IsActive).To(BeTrue())
			Expect(bcrypt.CompareHashAndPassword([]byte(created.User.PasswordHash), []byte("una-clave-segura"))).To(Succeed())
			Expect(created.Grants).To(BeNil())
			Expect(permissions.replaced).To(BeEmpty())
		})

		It("rejects unknown roles", func() {
			req := validCreate()
			req.Role = "superuser"

			_, err := service.Create(ctx, admin, req)
			Expect(internal.HasCode(err, internal.ErrCodeInvalidRole)).To(BeTrue())
			Expect(repo.writes).To(BeZero())
		})

		It("lets only a privileged actor create an admin", func() {
			req := validCreate()
			req.Role = "admin"

			_, err := service.Create(ctx, editor, req)
			Expect(internal.HasCode(err, internal.ErrCodePrivilegedNeeded)).To(BeTrue())
			Expect(repo.writes).To(BeZero())

			created, err := service.Create(ctx, admin, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(created.User.Role).To(Equal(coreUser.RoleAdmin))
		})

		It("rejects a taken email", func() {
			req := validCreate()
			req.Email = "EDITOR@portal.local"

			_, err := service.Create(ctx, admin, req)
			Expect(internal.HasCode(err, internal.ErrCodeEmailTaken)).To(BeTrue())
		})

		It("writes inline permissions for the new user", func() {
			inputs := []permission.GrantInput{
				permission.NewGrantInput(module.KeyNoticias, permission.Flags{CanCreate: true}),
			}
			req := validCreate()
			req.Permissions = &inputs

			created, err := service.Create(ctx, admin, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(permissions.validated).To(Equal(1))
			Expect(permissions.replaced).To(HaveLen(1))
			Expect(permissions.replaced[0].userID).To(Equal(created.User.ID))
			Expect(permissions.replaced[0].actorID).To(Equal(admin.ID))
			Expect(created.Grants).To(HaveLen(1))
			Expect(created.ToResponse().Permissions).To(HaveLen(1))
		})

		It("treats an explicit empty list as no grants", func() {
			inputs := []permission.GrantInput{}
			req := validCreate()
			req.Permissions = &inputs

			created, err := service.Create(ctx, admin, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(permissions.replaced).To(HaveLen(1))
			Expect(created.Grants).To(BeEmpty())
		})

		It("requires a privileged actor for inline permissions", func() {
			inputs := []permission.GrantInput{}
			req := validCreate()
			req.Permissions = &inputs

			_, err := service.Create(ctx, editor, req)
			Expect(internal.HasCode(err, internal.ErrCodePrivilegedNeeded)).To(BeTrue())
			Expect(repo.writes).To(BeZero())
		})

		It("writes nothing when the permission payload is invalid", func() {
			permissions.validateErr = internal.NewInvalidGrantPayloadError([]internal.ValidationError{
				{Field: "permissions[0].module", Code: string(internal.ErrCodeModuleNotFound)},
			})
			inputs := []permission.GrantInput{
				permission.NewGrantInput("transparencia_inexistente", permission.Flags{CanEdit: true}),
			}
			req := validCreate()
			req.Permissions = &inputs

			_, err := service.Create(ctx, admin, req)
			Expect(internal.HasCode(err, internal.ErrCodeInvalidGrantPayload)).To(BeTrue())
			Expect(repo.writes).To(BeZero())
			Expect(permissions.replaced).To(BeEmpty())
		})

		It("lets a standard user with usuarios create add users without grants", func() {
			created, err := service.Create(ctx, editor, validCreate())
			Expect(err).NotTo(HaveOccurred())
			Expect(created.User.ID).NotTo(BeZero())
		})
	})

	Describe("Update", func() {
		It("applies partial changes", func() {
			name := "Editor Jefe"
			updated, err := service.Update(ctx, admin, 2, UpdateUserRequest{Name: &name})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.User.Name).To(Equal("Editor Jefe"))
			Expect(updated.User.Email).To(Equal("editor@portal.local"))
			Expect(updated.Grants).To(BeNil())
		})

		It("rejects an email owned by someone else", func() {
			email := "admin@portal.local"
			_, err := service.Update(ctx, admin, 2, UpdateUserRequest{Email: &email})
			Expect(internal.HasCode(err, internal.ErrCodeEmailTaken)).To(BeTrue())
		})

		It("reports unknown users", func() {
			name := "x"
			_, err := service.Update(ctx, admin, 77, UpdateUserRequest{Name: &name})
			Expect(internal.HasCode(err, internal.ErrCodeUserNotFound)).To(BeTrue())
		})

		It("publishes a deactivation when is_active flips off", func() {
			inactive := false
			updated, err := service.Update(ctx, admin, 2, UpdateUserRequest{IsActive: &inactive})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.User.IsActive).To(BeFalse())
			Expect(publisher.types()).To(ConsistOf(events.EventTypeUserDeactivated))
		})

		It("replaces the grant set when permissions are sent", func() {
			inputs := []permission.GrantInput{
				permission.NewGrantInput(module.CategoryKey("presupuesto"), permission.Flags{CanEdit: true}),
			}
			updated, err := service.Update(ctx, admin, 2, UpdateUserRequest{Permissions: &inputs})
			Expect(err).NotTo(HaveOccurred())
			Expect(permissions.replaced).To(HaveLen(1))
			Expect(permissions.replaced[0].userID).To(Equal(int64(2)))
			Expect(updated.Grants).To(HaveLen(1))
		})

		It("requires a privileged actor for inline permissions", func() {
			inputs := []permission.GrantInput{}
			_, err := service.Update(ctx, editor, 2, UpdateUserRequest{Permissions: &inputs})
			Expect(internal.HasCode(err, internal.ErrCodePrivilegedNeeded)).To(BeTrue())
			Expect(repo.writes).To(BeZero())
		})
	})

	Describe("Update by a standard actor", func() {
		It("cannot promote itself to admin", func() {
			role := "admin"
			_, err := service.Update(ctx, editor, 2, UpdateUserRequest{Role: &role})
			Expect(internal.HasCode(err, internal.ErrCodePrivilegedNeeded)).To(BeTrue())
			Expect(repo.rows[2].Role).To(Equal("editor"))
			Expect(repo.writes).To(BeZero())
		})

		It("cannot change another user's role", func() {
			role := "editor"
			_, err := service.Update(ctx, editor, 3, UpdateUserRequest{Role: &role})
			Expect(internal.HasCode(err, internal.ErrCodePrivilegedNeeded)).To(BeTrue())
			Expect(repo.rows[3].Role).To(Equal("usuario"))
		})

		It("cannot touch an admin account", func() {
			inactive := false
			_, err := service.Update(ctx, editor, 1, UpdateUserRequest{IsActive: &inactive})
			Expect(internal.HasCode(err, internal.ErrCodePrivilegedNeeded)).To(BeTrue())

			password := "otra-clave-segura"
			_, err = service.Update(ctx, editor, 1, UpdateUserRequest{Password: &password})
			Expect(internal.HasCode(err, internal.ErrCodePrivilegedNeeded)).To(BeTrue())

			Expect(repo.rows[1].IsActive).To(BeTrue())
			Expect(repo.writes).To(BeZero())
			Expect(publisher.types()).To(BeEmpty())
		})

		It("may edit a standard user without changing the role", func() {
			name := "Usuario Renombrado"
			role := "usuario"
			updated, err := service.Update(ctx, editor, 3, UpdateUserRequest{Name: &name, Role: &role})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.User.Name).To(Equal("Usuario Renombrado"))
			Expect(updated.User.Role).To(Equal(coreUser.RoleUsuario))
		})

		It("reports an unknown role as invalid", func() {
			role := "root"
			_, err := service.Update(ctx, admin, 3, UpdateUserRequest{Role: &role})
			Expect(internal.HasCode(err, internal.ErrCodeInvalidRole)).To(BeTrue())
		})

		It("leaves role changes to admins", func() {
			role := "admin"
			updated, err := service.Update(ctx, admin, 2, UpdateUserRequest{Role: &role})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.User.Role).To(Equal(coreUser.RoleAdmin))
			Expect(updated.User.Principal().Role.Privilege()).To(Equal(coreUser.Privileged))
		})
	})

	Describe("Deactivate", func() {
		It("refuses a standard actor deactivating an admin", func() {
			err := service.Deactivate(ctx, editor, 1)
			Expect(internal.HasCode(err, internal.ErrCodePrivilegedNeeded)).To(BeTrue())
			Expect(repo.rows[1].IsActive).To(BeTrue())
			Expect(publisher.types()).To(BeEmpty())
		})

		It("deactivates and publishes an event", func() {
			Expect(service.Deactivate(ctx, admin, 2)).To(Succeed())
			Expect(repo.rows[2].IsActive).To(BeFalse())
			Expect(publisher.types()).To(ConsistOf(events.EventTypeUserDeactivated))
		})

		It("is idempotent", func() {
			Expect(service.Deactivate(ctx, admin, 2)).To(Succeed())
			Expect(service.Deactivate(ctx, admin, 2)).To(Succeed())
			Expect(repo.writes).To(Equal(1))
			Expect(publisher.types()).To(HaveLen(1))
		})

		It("refuses self-deactivation", func() {
			err := service.Deactivate(ctx, admin, 1)
			Expect(internal.HasCode(err, internal.ErrCodeValidationFailed)).To(BeTrue())
			Expect(repo.rows[1].IsActive).To(BeTrue())
		})

		It("reports unknown users", func() {
			err := service.Deactivate(ctx, admin, 404)
			Expect(internal.HasCode(err, internal.ErrCodeUserNotFound)).To(BeTrue())
		})
	})
})
