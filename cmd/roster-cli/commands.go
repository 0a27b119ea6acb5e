package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/school-roster/internal/bootstrap"
	"github.com/noah-isme/school-roster/internal/dto"
	"github.com/noah-isme/school-roster/internal/models"
	"github.com/noah-isme/school-roster/internal/service"
	"github.com/noah-isme/school-roster/pkg/config"
	"github.com/noah-isme/school-roster/pkg/logger"
	"github.com/noah-isme/school-roster/pkg/storage"
)

// cli carries the store opened for a single invocation.
type cli struct {
	cfg     *config.Config
	log     *zap.Logger
	roster  *service.RosterService
	closer  func() error
	mutated bool
	out     io.Writer
}

func newRootCommand() *cobra.Command {
	app := &cli{}

	root := &cobra.Command{
		Use:           "roster-cli",
		Short:         "Manage the school roster from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return app.close(cmd.Context())
		},
	}

	root.AddCommand(
		app.studentCommand(),
		app.courseCommand(),
		app.classroomCommand(),
		app.attendanceCommand(),
		app.calendarCommand(),
	)
	return root
}

func (a *cli) open(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	roster, closer, err := bootstrap.OpenRoster(cmd.Context(), cfg, nil, log)
	if roster == nil {
		return err
	}
	if err != nil {
		log.Warn("roster store loaded partially", zap.Error(err))
	}
	a.cfg, a.log, a.roster, a.closer, a.out = cfg, log, roster, closer, cmd.OutOrStdout()
	return nil
}

// close flushes the store when the command changed it.
func (a *cli) close(ctx context.Context) error {
	if a.roster == nil {
		return nil
	}
	defer a.closer()   //nolint:errcheck
	defer a.log.Sync() //nolint:errcheck
	if !a.mutated {
		return nil
	}
	return a.roster.Save(ctx)
}

func (a *cli) print(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *cli) studentCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "student", Short: "Register and list students"}

	var req dto.CreateStudentRequest
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			student, err := a.roster.CreateStudent(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.mutated = true
			return a.print(student)
		},
	}
	add.Flags().StringVar(&req.Name, "name", "", "first name")
	add.Flags().StringVar(&req.LastName, "last-name", "", "last name")
	add.Flags().StringVar(&req.DateOfBirth, "dob", "", "date of birth (YYYY-MM-DD)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List students",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.print(a.roster.ListStudents())
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}

func (a *cli) courseCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "course", Short: "Manage courses and enrollment"}

	var req dto.CreateCourseRequest
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a course",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			course, err := a.roster.CreateCourse(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.mutated = true
			return a.print(course)
		},
	}
	add.Flags().StringVar(&req.Name, "name", "", "course name")
	add.Flags().StringVar(&req.Duration, "duration", "", "course duration")
	add.Flags().StringVar(&req.Teacher, "teacher", "", "teacher name")

	list := &cobra.Command{
		Use:   "list",
		Short: "List courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.print(a.roster.ListCourses())
		},
	}

	enroll := &cobra.Command{
		Use:   "enroll COURSE_ID STUDENT_ID...",
		Short: "Enroll students in a course",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			added, err := a.roster.EnrollStudents(cmd.Context(), ids[0], ids[1:])
			if err != nil {
				// post-run hooks are skipped on error; keep the rows that did commit
				if added > 0 {
					return errors.Join(err, a.roster.Save(cmd.Context()))
				}
				return err
			}
			a.mutated = added > 0
			return a.print(dto.EnrollStudentsResponse{CourseID: ids[0], NewlyEnrolled: added, TotalEnrolled: a.enrolledCount(ids[0])})
		},
	}

	students := &cobra.Command{
		Use:   "students COURSE_ID",
		Short: "List students enrolled in a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			roster, err := a.roster.CourseRoster(cmd.Context(), ids[0])
			if err != nil {
				return err
			}
			return a.print(roster)
		},
	}

	cmd.AddCommand(add, list, enroll, students)
	return cmd
}

func (a *cli) enrolledCount(courseID int64) int {
	course, err := a.roster.GetCourse(courseID)
	if err != nil {
		return 0
	}
	return len(course.Enrolled)
}

func (a *cli) classroomCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "classroom", Short: "Manage classrooms, schedules and chairs"}

	var req dto.CreateClassroomRequest
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a classroom",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			classroom, err := a.roster.CreateClassroom(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.mutated = true
			return a.print(classroom)
		},
	}
	add.Flags().StringVar(&req.Name, "name", "", "classroom name")
	add.Flags().IntVar(&req.ChairCapacity, "chairs", 0, "number of chairs")

	list := &cobra.Command{
		Use:   "list",
		Short: "List classrooms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.print(a.roster.ListClassrooms())
		},
	}

	schedule := &cobra.Command{
		Use:   "schedule CLASSROOM_ID COURSE_ID SLOT",
		Short: "Book a course into a classroom slot",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[:2])
			if err != nil {
				return err
			}
			if err := a.roster.SetScheduleSlot(cmd.Context(), ids[0], ids[1], args[2]); err != nil {
				return err
			}
			a.mutated = true
			classroom, err := a.roster.GetClassroom(ids[0])
			if err != nil {
				return err
			}
			return a.print(classroom)
		},
	}

	capacity := &cobra.Command{
		Use:   "capacity CLASSROOM_ID EXPECTED",
		Short: "Print the chair shortfall for the expected students",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, expected, err := parseIDAndCount(args)
			if err != nil {
				return err
			}
			shortfall, err := a.roster.CheckCapacity(id, expected)
			if err != nil {
				return err
			}
			return a.print(map[string]int{"shortfall": shortfall})
		},
	}

	supply := &cobra.Command{
		Use:   "supply CLASSROOM_ID EXPECTED",
		Short: "Order missing chairs for a classroom",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, expected, err := parseIDAndCount(args)
			if err != nil {
				return err
			}
			exports, err := storage.NewLocalStorage(a.cfg.Exports.Dir)
			if err != nil {
				return err
			}
			result, err := service.NewSupplyService(a.roster, exports, a.log).Check(cmd.Context(), id, expected)
			if err != nil {
				return err
			}
			return a.print(result)
		},
	}

	cmd.AddCommand(add, list, schedule, capacity, supply)
	return cmd
}

func (a *cli) attendanceCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "attendance", Short: "Record and fetch attendance"}

	var req dto.RecordAttendanceRequest
	var status string
	record := &cobra.Command{
		Use:   "record",
		Short: "Record the status of a student at a course on a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Status = models.AttendanceStatus(status)
			rec, err := a.roster.RecordAttendance(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.mutated = true
			return a.print(rec)
		},
	}
	record.Flags().Int64Var(&req.StudentID, "student", 0, "student id")
	record.Flags().Int64Var(&req.CourseID, "course", 0, "course id")
	record.Flags().StringVar(&req.Date, "date", "", "date (YYYY-MM-DD)")
	record.Flags().StringVar(&status, "status", string(models.AttendancePresent), "Present, Absent, Late or Excused")

	var courseID, studentID int64
	var date string
	list := &cobra.Command{
		Use:   "list",
		Short: "Fetch attendance records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter models.AttendanceFilter
			if cmd.Flags().Changed("course") {
				filter.CourseID = &courseID
			}
			if cmd.Flags().Changed("student") {
				filter.StudentID = &studentID
			}
			if date != "" {
				filter.Date = &date
			}
			return a.print(a.roster.FetchAttendance(filter))
		},
	}
	list.Flags().Int64Var(&courseID, "course", 0, "course filter")
	list.Flags().Int64Var(&studentID, "student", 0, "student filter")
	list.Flags().StringVar(&date, "date", "", "date filter (YYYY-MM-DD)")

	cmd.AddCommand(record, list)
	return cmd
}

func (a *cli) calendarCommand() *cobra.Command {
	var format string
	var write bool
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print or write the school calendar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exports, err := storage.NewLocalStorage(a.cfg.Exports.Dir)
			if err != nil {
				return err
			}
			calendar := service.NewCalendarService(a.roster, nil, exports, 0, a.log)
			if write {
				path, err := calendar.WriteFile(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(a.out, path)
				return err
			}
			doc, err := calendar.Export(cmd.Context(), format)
			if err != nil {
				return err
			}
			_, err = a.out.Write(doc.Content)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", service.CalendarFormatText, "text, csv or pdf")
	cmd.Flags().BoolVar(&write, "write", false, "write "+service.CalendarFileName+" to the exports dir")
	return cmd
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, raw := range args {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q", raw)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseIDAndCount(args []string) (int64, int, error) {
	ids, err := parseIDs(args[:1])
	if err != nil {
		return 0, 0, err
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid count %q", args[1])
	}
	return ids[0], n, nil
}
