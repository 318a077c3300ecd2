package csvio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkordes/tripbook/internal/domain"
)

// PeopleHeader is the first line of the people cache and of people exports.
// ID and HasDriverLicense trail the core columns so files without them still
// read.
var PeopleHeader = []string{"FullName", "DOB", "Email", "Phone", "Gender", "Address", "Role", "EmergencyContact", "Interests", "TotalSpent", "ID", "HasDriverLicense"}

const minPersonFields = 7

// ErrUnknownRole marks a people row whose Role column is neither "Member"
// nor "Host". Such rows are dropped.
var ErrUnknownRole = errors.New("unknown role")

// ReadPeople parses people rows:
//
//	FullName,DOB,Email,Phone,Gender,Address,Role[,EmergencyContact[,Interests[,TotalSpent[,ID[,HasDriverLicense]]]]]
//
// Names are upper-cased. A row without an ID gets one derived from name and
// birth date, so the same person always gets the same ID. Interests are
// ';'-separated. A TotalSpent or HasDriverLicense that does not parse is
// ignored rather than failing the row.
func ReadPeople(r io.Reader, opts Options) ([]domain.Member, []domain.Host, Report, error) {
	rep := newReport()
	var (
		members []domain.Member
		hosts   []domain.Host
	)

	err := scanRows(r, opts.Header, peopleMarkers, func(line int, f []string) {
		if len(f) < minPersonFields {
			rep.fail(tooFewFields(line, minPersonFields, len(f)))
			return
		}

		dob, err := domain.ParseDate(f[1])
		if err != nil {
			rep.fail(&domain.ParseError{Line: line, Field: "DOB", Err: err})
			return
		}
		role, ok := domain.ParseRole(strings.TrimSpace(f[6]))
		if !ok {
			rep.fail(&domain.ParseError{Line: line, Field: "Role", Err: fmt.Errorf("%w %q", ErrUnknownRole, f[6])})
			return
		}

		name := strings.ToUpper(strings.TrimSpace(f[0]))
		pid := strings.TrimSpace(field(f, 10))
		if pid == "" {
			pid = domain.NewPersonID(name, dob)
		}
		id := domain.Identity{
			ID:          pid,
			FullName:    name,
			Email:       f[2],
			PhoneNumber: f[3],
			Gender:      domain.ParseGender(strings.TrimSpace(f[4])),
			Address:     f[5],
			DateOfBirth: dob,
		}
		contact := field(f, 7)

		switch role {
		case domain.RoleMember:
			m := domain.Member{Identity: id, EmergencyContact: contact}
			for _, interest := range splitList(field(f, 8)) {
				m.AddInterest(interest)
			}
			if spent, err := strconv.ParseFloat(strings.TrimSpace(field(f, 9)), 64); err == nil {
				m.AddToTotalSpent(spent)
			}
			if license, err := strconv.ParseBool(strings.TrimSpace(field(f, 11))); err == nil {
				m.HasDriverLicense = license
			}
			members = append(members, m)
		case domain.RoleHost:
			hosts = append(hosts, domain.Host{Identity: id, EmergencyContact: contact})
		}
		rep.succeed()
	})
	if err != nil {
		return members, hosts, rep, &domain.FileError{Op: "read", Err: err}
	}
	return members, hosts, rep, nil
}

// WritePeople writes members then hosts, header first. Interests are always
// quoted and ';'-joined; host rows leave Interests, TotalSpent and
// HasDriverLicense empty.
func WritePeople(w io.Writer, members []domain.Member, hosts []domain.Host) error {
	bw := bufio.NewWriter(w)
	writeLine(bw, PeopleHeader...)
	for _, m := range members {
		writeLine(bw, append(identityFields(m.Identity, domain.RoleMember),
			encodeField(m.EmergencyContact, false),
			encodeField(strings.Join(m.Interests, ";"), true),
			strconv.FormatFloat(m.TotalSpent, 'f', -1, 64),
			encodeField(m.ID, false),
			strconv.FormatBool(m.HasDriverLicense),
		)...)
	}
	for _, h := range hosts {
		writeLine(bw, append(identityFields(h.Identity, domain.RoleHost),
			encodeField(h.EmergencyContact, false), "", "",
			encodeField(h.ID, false), "",
		)...)
	}
	if err := bw.Flush(); err != nil {
		return &domain.FileError{Op: "write", Err: err}
	}
	return nil
}

func identityFields(id domain.Identity, role domain.Role) []string {
	return []string{
		encodeField(id.FullName, false),
		id.DateOfBirth.String(),
		encodeField(id.Email, false),
		encodeField(id.PhoneNumber, false),
		id.Gender.String(),
		encodeField(id.Address, false),
		role.String(),
	}
}

func field(f []string, i int) string {
	if i < len(f) {
		return f[i]
	}
	return ""
}
