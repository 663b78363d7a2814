/*
Package seed loads faculties, courses and students from a YAML document.

	faculties:
	  - name: Engineering
	    code: ENG
	courses:
	  - title: Algorithms
	    code: CS201
	    faculty: ENG
	students:
	  - firstName: Ada
	    lastName: Lovelace
	    email: ada@example.edu
	    faculty: ENG
	    enrolledCourses: [CS201]

References may be written as codes of records defined in the same file;
they are swapped for the generated ids before validation.
*/
package seed
